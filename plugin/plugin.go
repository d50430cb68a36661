// Package plugin provides an extensible plugin system for subwave.
// Plugins hook into merchant, config and subscription lifecycle events.
package plugin

import (
	"context"

	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/subscription"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. The argument is the *subwave.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Merchant & config hooks
// ──────────────────────────────────────────────────

// OnMerchantRegistered is called after a merchant and its founding config
// are committed.
type OnMerchantRegistered interface {
	Plugin
	OnMerchantRegistered(ctx context.Context, m *merchant.Merchant, c *merchant.Config) error
}

// OnConfigCreated is called when a merchant publishes an additional product.
type OnConfigCreated interface {
	Plugin
	OnConfigCreated(ctx context.Context, c *merchant.Config) error
}

// OnConfigUpdated is called after a config patch is committed.
type OnConfigUpdated interface {
	Plugin
	OnConfigUpdated(ctx context.Context, oldConfig, newConfig *merchant.Config) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called after a paid subscription is committed.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription, r *payment.Receipt) error
}

// OnSubscriptionRenewed is called after a paid renewal is committed.
type OnSubscriptionRenewed interface {
	Plugin
	OnSubscriptionRenewed(ctx context.Context, sub *subscription.Subscription, r *payment.Receipt) error
}

// OnSubscriptionCanceled is called after a cancellation is committed.
type OnSubscriptionCanceled interface {
	Plugin
	OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) error
}

// OnEntitlementChecked is called for every entitlement check.
type OnEntitlementChecked interface {
	Plugin
	OnEntitlementChecked(ctx context.Context, result *entitlement.Result) error
}

// OnPaymentFailed is called when the gateway rejects a transfer.
type OnPaymentFailed interface {
	Plugin
	OnPaymentFailed(ctx context.Context, t payment.Transfer, err error) error
}
