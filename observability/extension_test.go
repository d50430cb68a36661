package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/observability"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/subscription"
)

func value(c any) float64 {
	return testutil.ToFloat64(c.(prometheus.Collector))
}

func TestMetricsExtensionCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))
	ctx := context.Background()

	require.NoError(t, ext.OnMerchantRegistered(ctx, &merchant.Merchant{}, &merchant.Config{}))
	require.NoError(t, ext.OnConfigUpdated(ctx, &merchant.Config{Active: true}, &merchant.Config{Active: false}))

	sub := &subscription.Subscription{}
	rcpt := &payment.Receipt{Transfer: payment.Transfer{Amount: 1000}}
	require.NoError(t, ext.OnSubscriptionCreated(ctx, sub, rcpt))
	require.NoError(t, ext.OnSubscriptionRenewed(ctx, sub, rcpt))
	require.NoError(t, ext.OnSubscriptionCanceled(ctx, sub))

	require.NoError(t, ext.OnEntitlementChecked(ctx, &entitlement.Result{Entitled: true}))
	require.NoError(t, ext.OnEntitlementChecked(ctx, &entitlement.Result{State: subscription.StateExpired}))
	require.NoError(t, ext.OnEntitlementChecked(ctx, &entitlement.Result{State: subscription.StateCanceled}))
	require.NoError(t, ext.OnPaymentFailed(ctx, payment.Transfer{}, errors.New("declined")))

	assert.Equal(t, 1.0, value(ext.MerchantRegistered))
	assert.Equal(t, 1.0, value(ext.ConfigCreated))
	assert.Equal(t, 1.0, value(ext.ConfigDeactivated))
	assert.Equal(t, 1.0, value(ext.SubscriptionCreated))
	assert.Equal(t, 1.0, value(ext.SubscriptionRenewed))
	assert.Equal(t, 1.0, value(ext.SubscriptionCanceled))
	assert.Equal(t, 2000.0, value(ext.RevenueCollected))
	assert.Equal(t, 3.0, value(ext.EntitlementChecks))
	assert.Equal(t, 2.0, value(ext.EntitlementDenied))
	assert.Equal(t, 1.0, value(ext.EntitlementExpired))
	assert.Equal(t, 1.0, value(ext.PaymentFailures))
}

func TestPrometheusFactoryNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg)

	c := f.Counter("subwave.config.created")
	c.Inc()
	f.Histogram("subwave.payment.amount").Observe(5)

	assert.Same(t, c, f.Counter("subwave.config.created"))

	n, err := testutil.GatherAndCount(reg, "subwave_config_created_total", "subwave_payment_amount")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
