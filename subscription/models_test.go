package subscription_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/subwave/subscription"
)

func TestExpiryFrom(t *testing.T) {
	tests := []struct {
		name   string
		base   int64
		days   uint32
		want   int64
		wantOK bool
	}{
		{"thirty days from zero", 0, 30, 2_592_000, true},
		{"one day", 100, 1, 86_500, true},
		{"negative base", -86_400, 1, 0, true},
		{"largest fitting base", math.MaxInt64 - 86_400, 1, math.MaxInt64, true},
		{"overflow by one", math.MaxInt64 - 86_399, 1, 0, false},
		{"overflow near max", math.MaxInt64 - 1000, 1, 0, false},
		{"max days", 0, math.MaxUint32, int64(math.MaxUint32) * 86_400, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := subscription.ExpiryFrom(tt.base, tt.days)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRenewalBase(t *testing.T) {
	assert.Equal(t, int64(2_592_000), subscription.RenewalBase(2_592_000, 100), "unexpired extends from expiry")
	assert.Equal(t, int64(6_000_000), subscription.RenewalBase(5_184_000, 6_000_000), "expired extends from now")
	assert.Equal(t, int64(500), subscription.RenewalBase(500, 500), "expiry equal to now counts as expired")
}

func TestAddPaid(t *testing.T) {
	got, ok := subscription.AddPaid(1000, 1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(2000), got)

	_, ok = subscription.AddPaid(math.MaxUint64, 1)
	assert.False(t, ok)
}

func TestStateAndEntitled(t *testing.T) {
	sub := &subscription.Subscription{StartTimestamp: 0, ExpiryTimestamp: 1000, Active: true}

	assert.True(t, sub.Entitled(999))
	assert.Equal(t, subscription.StateActive, sub.State(999))

	assert.False(t, sub.Entitled(1000))
	assert.Equal(t, subscription.StateExpired, sub.State(1000))

	sub.Active = false
	assert.False(t, sub.Entitled(0))
	assert.Equal(t, subscription.StateCanceled, sub.State(0))
	assert.Equal(t, subscription.StateCanceled, sub.State(5000))
}
