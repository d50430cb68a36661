// Package subscription holds the subscription record and the time arithmetic
// that governs its entitlement window.
package subscription

import (
	"math"

	"github.com/xraph/subwave/address"
)

// SecondsPerDay converts billing intervals to timestamp units.
const SecondsPerDay int64 = 86400

// State is the derived lifecycle state of a subscription at a given time.
type State string

const (
	StateActive   State = "active"
	StateExpired  State = "expired"
	StateCanceled State = "canceled"
)

// Subscription grants time-boxed entitlement to a subscriber for one config.
// Timestamps are unix seconds.
type Subscription struct {
	Address         address.Address `json:"address"`
	Subscriber      address.Address `json:"subscriber"`
	Merchant        address.Address `json:"merchant"`
	Config          address.Address `json:"config"`
	StartTimestamp  int64           `json:"start_timestamp"`
	ExpiryTimestamp int64           `json:"expiry_timestamp"`
	Active          bool            `json:"active"`
	TotalPaid       uint64          `json:"total_paid"`
}

// Entitled reports whether the subscription grants access at now.
func (s *Subscription) Entitled(now int64) bool {
	return s.Active && s.ExpiryTimestamp > now
}

// State returns the lifecycle state at now. Cancellation wins over expiry.
func (s *Subscription) State(now int64) State {
	switch {
	case !s.Active:
		return StateCanceled
	case s.ExpiryTimestamp <= now:
		return StateExpired
	default:
		return StateActive
	}
}

// IntervalSeconds converts a day count to seconds. It cannot overflow int64.
func IntervalSeconds(days uint32) int64 {
	return int64(days) * SecondsPerDay
}

// ExpiryFrom returns base + days, or false if the sum overflows int64.
func ExpiryFrom(base int64, days uint32) (int64, bool) {
	step := IntervalSeconds(days)
	if base > math.MaxInt64-step {
		return 0, false
	}
	return base + step, true
}

// RenewalBase picks the timestamp a renewal extends from: the current expiry
// while it is still in the future, otherwise now.
func RenewalBase(expiry, now int64) int64 {
	if expiry > now {
		return expiry
	}
	return now
}

// AddPaid returns total + amount, or false on overflow.
func AddPaid(total, amount uint64) (uint64, bool) {
	sum := total + amount
	if sum < total {
		return 0, false
	}
	return sum, true
}
