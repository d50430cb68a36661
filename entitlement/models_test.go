package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/subscription"
)

func TestEvaluate(t *testing.T) {
	sub := &subscription.Subscription{ExpiryTimestamp: 2_592_000, Active: true}

	tests := []struct {
		name       string
		active     bool
		now        int64
		wantOK     bool
		wantState  subscription.State
		wantReason string
	}{
		{"inside window", true, 100, true, subscription.StateActive, ""},
		{"at expiry", true, 2_592_000, false, subscription.StateExpired, entitlement.ReasonExpired},
		{"canceled before expiry", false, 100, false, subscription.StateCanceled, entitlement.ReasonCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := *sub
			s.Active = tt.active

			r := entitlement.Evaluate(&s, tt.now)
			assert.Equal(t, tt.wantOK, r.Entitled)
			assert.Equal(t, tt.wantState, r.State)
			assert.Equal(t, tt.wantReason, r.Reason)
			assert.Equal(t, int64(2_592_000), r.ExpiryTimestamp)
			assert.Equal(t, tt.now, r.CheckedAt)
		})
	}
}
