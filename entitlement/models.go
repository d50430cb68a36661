// Package entitlement holds the read model returned by entitlement checks.
package entitlement

import (
	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/subscription"
)

// Result is the outcome of an entitlement check at CheckedAt.
type Result struct {
	Subscription    address.Address    `json:"subscription"`
	Subscriber      address.Address    `json:"subscriber"`
	Config          address.Address    `json:"config"`
	Entitled        bool               `json:"entitled"`
	State           subscription.State `json:"state"`
	ExpiryTimestamp int64              `json:"expiry_timestamp"`
	CheckedAt       int64              `json:"checked_at"`
	Reason          string             `json:"reason,omitempty"`
}

// Reasons reported with a denied result.
const (
	ReasonCanceled = "subscription canceled"
	ReasonExpired  = "subscription expired"
)

// Evaluate builds the result for sub at now.
func Evaluate(sub *subscription.Subscription, now int64) *Result {
	r := &Result{
		Subscription:    sub.Address,
		Subscriber:      sub.Subscriber,
		Config:          sub.Config,
		Entitled:        sub.Entitled(now),
		State:           sub.State(now),
		ExpiryTimestamp: sub.ExpiryTimestamp,
		CheckedAt:       now,
	}
	switch r.State {
	case subscription.StateCanceled:
		r.Reason = ReasonCanceled
	case subscription.StateExpired:
		r.Reason = ReasonExpired
	}
	return r
}
