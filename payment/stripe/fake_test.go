package stripe

import (
	"fmt"
	"net/http"
	"sync"

	stripe "github.com/stripe/stripe-go/v82"
)

// fakeStripe answers like the Stripe API: a reused idempotency key returns
// the response recorded for the first request, marked as replayed.
type fakeStripe struct {
	mu       sync.Mutex
	seq      int
	byKey    map[string]stripe.PaymentIntent
	byID     map[string]*stripe.PaymentIntent
	refunded map[string]bool
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{
		byKey:    map[string]stripe.PaymentIntent{},
		byID:     map[string]*stripe.PaymentIntent{},
		refunded: map[string]bool{},
	}
}

func (f *fakeStripe) gateway() *Gateway {
	g := testGateway()
	g.newIntent = f.newIntent
	g.getIntent = f.getIntent
	g.newRefund = f.newRefund
	g.cancelIntent = func(id string, _ *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
		return nil, fmt.Errorf("unexpected cancel of %s", id)
	}
	return g
}

func (f *fakeStripe) newIntent(p *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := ""
	if p.IdempotencyKey != nil {
		key = *p.IdempotencyKey
	}
	if cached, ok := f.byKey[key]; ok && key != "" {
		cached.LastResponse = &stripe.APIResponse{Header: http.Header{"Idempotent-Replayed": []string{"true"}}}
		return &cached, nil
	}

	f.seq++
	pi := &stripe.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", f.seq),
		Amount:       *p.Amount,
		Status:       stripe.PaymentIntentStatusSucceeded,
		LatestCharge: &stripe.Charge{ID: fmt.Sprintf("ch_%d", f.seq)},
	}
	f.byID[pi.ID] = pi
	if key != "" {
		f.byKey[key] = f.snapshot(pi)
	}
	out := f.snapshot(pi)
	return &out, nil
}

func (f *fakeStripe) getIntent(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pi, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent %s", id)
	}
	out := f.snapshot(pi)
	return &out, nil
}

func (f *fakeStripe) newRefund(p *stripe.RefundParams) (*stripe.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := *p.PaymentIntent
	pi, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent %s", id)
	}
	f.refunded[id] = true
	pi.LatestCharge.Refunded = true
	pi.LatestCharge.AmountRefunded = pi.Amount
	return &stripe.Refund{ID: "re_" + id}, nil
}

// net is the amount collected minus the amount refunded.
func (f *fakeStripe) net() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, pi := range f.byID {
		if pi.Status != stripe.PaymentIntentStatusSucceeded || f.refunded[id] {
			continue
		}
		n += pi.Amount
	}
	return n
}

func (f *fakeStripe) snapshot(pi *stripe.PaymentIntent) stripe.PaymentIntent {
	out := *pi
	charge := *pi.LatestCharge
	out.LatestCharge = &charge
	return out
}
