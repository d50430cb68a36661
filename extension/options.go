package extension

import (
	"time"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/lock"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/plugin"
	"github.com/xraph/subwave/store"
)

// Option configures the subwave Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGateway sets the payment gateway.
func WithGateway(g payment.Gateway) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, subwave.WithGateway(g))
	}
}

// WithLocker sets the per-record locker.
func WithLocker(l lock.Locker) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, subwave.WithLocker(l))
	}
}

// WithEngineOption passes a subwave.Option through to the underlying engine.
func WithEngineOption(opt subwave.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a subwave plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, subwave.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithLockTTL sets the record lock TTL.
func WithLockTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.LockTTL = d }
}

// WithLockTimeout sets how long operations wait for a busy record.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.LockTimeout = d }
}

// WithHookTimeout sets the per-hook plugin timeout.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}
