// Package subwave provides a recurring-payment entitlement ledger for Go
// applications.
//
// Merchants publish subscription products (a price in base units of a token
// mint and a billing interval in days). Subscribers pay to open a
// subscription that grants time-boxed entitlement, renew it to extend the
// window, or cancel it for good. Anyone holding a subscription's address can
// ask whether it currently grants access.
//
// subwave is a library. It provides:
//
//   - Deterministic record addressing: one merchant per (authority, mint), one
//     config per (merchant, product), one subscription per (subscriber, config)
//   - Overflow-checked expiry arithmetic with a fixed renewal time-base policy
//   - Payment through a pluggable gateway, committed all-or-nothing with the
//     record change
//   - Per-key linearization via an in-process or Redis lock
//   - Memory, LevelDB, PostgreSQL, SQLite and MongoDB record stores
//   - Plugin hooks for audit trails and Prometheus metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/subwave"
//	    "github.com/xraph/subwave/payment/tokenledger"
//	    "github.com/xraph/subwave/store/memory"
//	)
//
//	tokens := tokenledger.New()
//	engine := subwave.New(memory.New(), subwave.WithGateway(tokens))
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
//	_, cfg, err := engine.RegisterMerchant(ctx, authority, mint, 1000, 30, "pro")
//	sub, err := engine.Subscribe(ctx, subscriber, cfg.Address)
//	ok, err := engine.Entitled(ctx, subscriber, cfg.Address)
//
// # Renewal
//
// A renewal extends from the current expiry while it is still in the future
// and from now once it has passed:
//
//	subscribe at t=0            expiry = 2_592_000
//	renew at t=100              expiry = 5_184_000
//	renew at t=6_000_000        expiry = 8_592_000
//
// # Time
//
// Every operation reads time from the engine's clock.Clock (unix seconds).
// Tests inject clock.Manual with WithClock.
package subwave
