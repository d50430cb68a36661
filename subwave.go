package subwave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/clock"
	"github.com/xraph/subwave/lock"
	lockmemory "github.com/xraph/subwave/lock/memory"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/plugin"
	"github.com/xraph/subwave/store"
)

// Default lock settings.
const (
	DefaultLockTTL     = 30 * time.Second
	DefaultLockTimeout = 10 * time.Second
)

// Engine is the subscription ledger. It owns the merchant and config manager
// and the subscription lifecycle, and is safe for concurrent use.
type Engine struct {
	store   store.Store
	records *records
	gateway payment.Gateway
	locker  lock.Locker
	clock   clock.Clock
	plugins *plugin.Registry
	logger  *slog.Logger

	lockTTL     time.Duration
	lockTimeout time.Duration
	skipMigrate bool
}

// New creates a new Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		records:     &records{store: s},
		locker:      lockmemory.New(),
		clock:       clock.System{},
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		lockTTL:     DefaultLockTTL,
		lockTimeout: DefaultLockTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithGateway sets the payment gateway used by Subscribe and Renew.
func WithGateway(g payment.Gateway) Option {
	return func(e *Engine) { e.gateway = g }
}

// WithLocker replaces the in-process per-key locker, e.g. with a Redis lock
// shared by several engine instances.
func WithLocker(l lock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLockTTL sets how long a distributed lock outlives a crashed holder.
func WithLockTTL(d time.Duration) Option {
	return func(e *Engine) { e.lockTTL = d }
}

// WithLockTimeout bounds how long an operation waits for a busy record.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lockTimeout = d }
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Engine) { e.plugins.WithTimeout(d) }
}

// WithoutMigrate makes Start skip store migration.
func WithoutMigrate() Option {
	return func(e *Engine) { e.skipMigrate = true }
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("subwave started",
		"plugins", e.plugins.Count(),
		"gateway", e.gateway != nil,
		"lock_ttl", e.lockTTL,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Store returns the underlying record store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Now returns the engine's current time.
func (e *Engine) Now() int64 { return e.clock.Now() }

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// withLock runs fn while holding the locks of every address in keys.
func (e *Engine) withLock(ctx context.Context, fn func() error, keys ...address.Address) error {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}

	lctx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()

	release, err := lock.AcquireAll(lctx, e.locker, e.lockTTL, names...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", ErrStoreBusy, err)
	}
	defer release()

	return fn()
}

// pay executes t through the gateway.
func (e *Engine) pay(ctx context.Context, t payment.Transfer) (*payment.Receipt, error) {
	if e.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	r, err := e.gateway.Transfer(ctx, t)
	if err != nil {
		e.logger.Warn("payment failed",
			"from", t.From.String(),
			"to", t.To.String(),
			"amount", t.Amount,
			"error", err,
		)
		e.plugins.EmitPaymentFailed(ctx, t, err)
		return nil, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	return r, nil
}

// compensate reverses a payment whose record commit failed.
func (e *Engine) compensate(ctx context.Context, r *payment.Receipt, cause error) {
	rev, ok := e.gateway.(payment.Reverser)
	if !ok {
		e.logger.Error("commit failed after payment and gateway cannot reverse",
			"receipt", r.ID.String(),
			"reference", r.Transfer.Reference,
			"error", cause,
		)
		return
	}

	if err := rev.Reverse(context.WithoutCancel(ctx), r); err != nil {
		e.logger.Error("payment reversal failed",
			"receipt", r.ID.String(),
			"reference", r.Transfer.Reference,
			"cause", cause,
			"error", err,
		)
		return
	}

	e.logger.Warn("payment reversed after failed commit",
		"receipt", r.ID.String(),
		"reference", r.Transfer.Reference,
		"cause", cause,
	)
}

// paymentReference is stable for one logical payment against a subscription.
func paymentReference(sub address.Address, op string, totalPaid uint64) string {
	return fmt.Sprintf("%s:%s:%d", sub, op, totalPaid)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
