package plugin_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/plugin"
	"github.com/xraph/subwave/subscription"
)

type counter struct {
	name     string
	created  atomic.Int32
	canceled atomic.Int32
	failed   atomic.Int32
}

func (c *counter) Name() string { return c.name }

func (c *counter) OnSubscriptionCreated(context.Context, *subscription.Subscription, *payment.Receipt) error {
	c.created.Add(1)
	return nil
}

func (c *counter) OnSubscriptionCanceled(context.Context, *subscription.Subscription) error {
	c.canceled.Add(1)
	return errors.New("hook failure is logged, not returned")
}

func (c *counter) OnPaymentFailed(context.Context, payment.Transfer, error) error {
	c.failed.Add(1)
	return nil
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnConfigCreated(ctx context.Context, _ *merchant.Config) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(&counter{name: "a"}))
	require.Error(t, r.Register(&counter{name: "a"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 1)
}

func TestEmitDispatchesByInterface(t *testing.T) {
	r := plugin.NewRegistry()
	c := &counter{name: "c"}
	require.NoError(t, r.Register(c))

	ctx := context.Background()
	sub := &subscription.Subscription{}

	r.EmitSubscriptionCreated(ctx, sub, nil)
	r.EmitSubscriptionCanceled(ctx, sub)
	r.EmitPaymentFailed(ctx, payment.Transfer{}, errors.New("declined"))
	r.EmitSubscriptionRenewed(ctx, sub, nil) // not implemented by counter

	assert.Equal(t, int32(1), c.created.Load())
	assert.Equal(t, int32(1), c.canceled.Load())
	assert.Equal(t, int32(1), c.failed.Load())
}

func TestEmitTimesOutSlowHooks(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(10 * time.Millisecond)
	require.NoError(t, r.Register(slow{}))

	start := time.Now()
	r.EmitConfigCreated(context.Background(), &merchant.Config{})
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
