// Package observability provides a metrics extension for subwave that records
// lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/plugin"
	"github.com/xraph/subwave/subscription"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnMerchantRegistered   = (*MetricsExtension)(nil)
	_ plugin.OnConfigCreated        = (*MetricsExtension)(nil)
	_ plugin.OnConfigUpdated        = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated  = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionRenewed  = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCanceled = (*MetricsExtension)(nil)
	_ plugin.OnEntitlementChecked   = (*MetricsExtension)(nil)
	_ plugin.OnPaymentFailed        = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a subwave plugin to track merchant and subscription activity.
type MetricsExtension struct {
	factory MetricFactory

	// Merchant metrics
	MerchantRegistered Counter
	ConfigCreated      Counter
	ConfigUpdated      Counter
	ConfigDeactivated  Counter

	// Subscription metrics
	SubscriptionCreated  Counter
	SubscriptionRenewed  Counter
	SubscriptionCanceled Counter
	RevenueCollected     Counter
	PaymentAmount        Histogram

	// Entitlement metrics
	EntitlementChecks  Counter
	EntitlementDenied  Counter
	EntitlementExpired Counter

	// Error metrics
	PaymentFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		MerchantRegistered: factory.Counter("subwave.merchant.registered"),
		ConfigCreated:      factory.Counter("subwave.config.created"),
		ConfigUpdated:      factory.Counter("subwave.config.updated"),
		ConfigDeactivated:  factory.Counter("subwave.config.deactivated"),

		SubscriptionCreated:  factory.Counter("subwave.subscription.created"),
		SubscriptionRenewed:  factory.Counter("subwave.subscription.renewed"),
		SubscriptionCanceled: factory.Counter("subwave.subscription.canceled"),
		RevenueCollected:     factory.Counter("subwave.revenue.collected"),
		PaymentAmount:        factory.Histogram("subwave.payment.amount"),

		EntitlementChecks:  factory.Counter("subwave.entitlement.checks"),
		EntitlementDenied:  factory.Counter("subwave.entitlement.denied"),
		EntitlementExpired: factory.Counter("subwave.entitlement.expired"),

		PaymentFailures: factory.Counter("subwave.payment.failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Merchant & config hooks
// ──────────────────────────────────────────────────

// OnMerchantRegistered implements plugin.OnMerchantRegistered.
// The founding config counts as a created config.
func (m *MetricsExtension) OnMerchantRegistered(_ context.Context, _ *merchant.Merchant, _ *merchant.Config) error {
	m.MerchantRegistered.Inc()
	m.ConfigCreated.Inc()
	return nil
}

// OnConfigCreated implements plugin.OnConfigCreated.
func (m *MetricsExtension) OnConfigCreated(_ context.Context, _ *merchant.Config) error {
	m.ConfigCreated.Inc()
	return nil
}

// OnConfigUpdated implements plugin.OnConfigUpdated.
func (m *MetricsExtension) OnConfigUpdated(_ context.Context, oldConfig, newConfig *merchant.Config) error {
	m.ConfigUpdated.Inc()
	if oldConfig.Active && !newConfig.Active {
		m.ConfigDeactivated.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *subscription.Subscription, r *payment.Receipt) error {
	m.SubscriptionCreated.Inc()
	m.observePayment(r)
	return nil
}

// OnSubscriptionRenewed implements plugin.OnSubscriptionRenewed.
func (m *MetricsExtension) OnSubscriptionRenewed(_ context.Context, _ *subscription.Subscription, r *payment.Receipt) error {
	m.SubscriptionRenewed.Inc()
	m.observePayment(r)
	return nil
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (m *MetricsExtension) OnSubscriptionCanceled(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCanceled.Inc()
	return nil
}

func (m *MetricsExtension) observePayment(r *payment.Receipt) {
	if r == nil {
		return
	}
	amount := float64(r.Transfer.Amount)
	m.RevenueCollected.Add(amount)
	m.PaymentAmount.Observe(amount)
}

// ──────────────────────────────────────────────────
// Entitlement & payment hooks
// ──────────────────────────────────────────────────

// OnEntitlementChecked implements plugin.OnEntitlementChecked.
func (m *MetricsExtension) OnEntitlementChecked(_ context.Context, result *entitlement.Result) error {
	m.EntitlementChecks.Inc()
	if result.Entitled {
		return nil
	}
	m.EntitlementDenied.Inc()
	if result.State == subscription.StateExpired {
		m.EntitlementExpired.Inc()
	}
	return nil
}

// OnPaymentFailed implements plugin.OnPaymentFailed.
func (m *MetricsExtension) OnPaymentFailed(_ context.Context, _ payment.Transfer, _ error) error {
	m.PaymentFailures.Inc()
	return nil
}
