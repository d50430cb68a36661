package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/subscription"
)

// DefaultHookTimeout bounds a single plugin hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are cached by type at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onMerchantRegistered   []OnMerchantRegistered
	onConfigCreated        []OnConfigCreated
	onConfigUpdated        []OnConfigUpdated
	onSubscriptionCreated  []OnSubscriptionCreated
	onSubscriptionRenewed  []OnSubscriptionRenewed
	onSubscriptionCanceled []OnSubscriptionCanceled
	onEntitlementChecked   []OnEntitlementChecked
	onPaymentFailed        []OnPaymentFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnMerchantRegistered); ok {
		r.onMerchantRegistered = append(r.onMerchantRegistered, v)
	}
	if v, ok := p.(OnConfigCreated); ok {
		r.onConfigCreated = append(r.onConfigCreated, v)
	}
	if v, ok := p.(OnConfigUpdated); ok {
		r.onConfigUpdated = append(r.onConfigUpdated, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnSubscriptionRenewed); ok {
		r.onSubscriptionRenewed = append(r.onSubscriptionRenewed, v)
	}
	if v, ok := p.(OnSubscriptionCanceled); ok {
		r.onSubscriptionCanceled = append(r.onSubscriptionCanceled, v)
	}
	if v, ok := p.(OnEntitlementChecked); ok {
		r.onEntitlementChecked = append(r.onEntitlementChecked, v)
	}
	if v, ok := p.(OnPaymentFailed); ok {
		r.onPaymentFailed = append(r.onPaymentFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnMerchantRegistered", reflect.TypeFor[OnMerchantRegistered]()},
	{"OnConfigCreated", reflect.TypeFor[OnConfigCreated]()},
	{"OnConfigUpdated", reflect.TypeFor[OnConfigUpdated]()},
	{"OnSubscriptionCreated", reflect.TypeFor[OnSubscriptionCreated]()},
	{"OnSubscriptionRenewed", reflect.TypeFor[OnSubscriptionRenewed]()},
	{"OnSubscriptionCanceled", reflect.TypeFor[OnSubscriptionCanceled]()},
	{"OnEntitlementChecked", reflect.TypeFor[OnEntitlementChecked]()},
	{"OnPaymentFailed", reflect.TypeFor[OnPaymentFailed]()},
}

// implementedInterfaces lists the hook interfaces p implements.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for each plugin in the snapshot. Failures are logged and
// never returned: a hook cannot undo a committed operation.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, snapshot func() []T, fn func(T) error) {
	r.mu.RLock()
	plugins := snapshot()
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", func() []OnInit { return r.onInit }, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", func() []OnShutdown { return r.onShutdown }, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitMerchantRegistered emits a merchant registered event.
func (r *Registry) EmitMerchantRegistered(ctx context.Context, m *merchant.Merchant, c *merchant.Config) {
	emit(ctx, r, "OnMerchantRegistered", func() []OnMerchantRegistered { return r.onMerchantRegistered }, func(p OnMerchantRegistered) error {
		return p.OnMerchantRegistered(ctx, m, c)
	})
}

// EmitConfigCreated emits a config created event.
func (r *Registry) EmitConfigCreated(ctx context.Context, c *merchant.Config) {
	emit(ctx, r, "OnConfigCreated", func() []OnConfigCreated { return r.onConfigCreated }, func(p OnConfigCreated) error {
		return p.OnConfigCreated(ctx, c)
	})
}

// EmitConfigUpdated emits a config updated event.
func (r *Registry) EmitConfigUpdated(ctx context.Context, oldConfig, newConfig *merchant.Config) {
	emit(ctx, r, "OnConfigUpdated", func() []OnConfigUpdated { return r.onConfigUpdated }, func(p OnConfigUpdated) error {
		return p.OnConfigUpdated(ctx, oldConfig, newConfig)
	})
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub *subscription.Subscription, rcpt *payment.Receipt) {
	emit(ctx, r, "OnSubscriptionCreated", func() []OnSubscriptionCreated { return r.onSubscriptionCreated }, func(p OnSubscriptionCreated) error {
		return p.OnSubscriptionCreated(ctx, sub, rcpt)
	})
}

// EmitSubscriptionRenewed emits a subscription renewed event.
func (r *Registry) EmitSubscriptionRenewed(ctx context.Context, sub *subscription.Subscription, rcpt *payment.Receipt) {
	emit(ctx, r, "OnSubscriptionRenewed", func() []OnSubscriptionRenewed { return r.onSubscriptionRenewed }, func(p OnSubscriptionRenewed) error {
		return p.OnSubscriptionRenewed(ctx, sub, rcpt)
	})
}

// EmitSubscriptionCanceled emits a subscription canceled event.
func (r *Registry) EmitSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) {
	emit(ctx, r, "OnSubscriptionCanceled", func() []OnSubscriptionCanceled { return r.onSubscriptionCanceled }, func(p OnSubscriptionCanceled) error {
		return p.OnSubscriptionCanceled(ctx, sub)
	})
}

// EmitEntitlementChecked emits an entitlement checked event.
func (r *Registry) EmitEntitlementChecked(ctx context.Context, result *entitlement.Result) {
	emit(ctx, r, "OnEntitlementChecked", func() []OnEntitlementChecked { return r.onEntitlementChecked }, func(p OnEntitlementChecked) error {
		return p.OnEntitlementChecked(ctx, result)
	})
}

// EmitPaymentFailed emits a payment failed event.
func (r *Registry) EmitPaymentFailed(ctx context.Context, t payment.Transfer, err error) {
	emit(ctx, r, "OnPaymentFailed", func() []OnPaymentFailed { return r.onPaymentFailed }, func(p OnPaymentFailed) error {
		return p.OnPaymentFailed(ctx, t, err)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a ledger operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
