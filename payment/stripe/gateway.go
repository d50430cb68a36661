// Package stripe collects subscription payments as Stripe PaymentIntents with
// a destination charge to the merchant's connected account.
package stripe

import (
	"context"
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/payment"
)

var (
	_ payment.Gateway  = (*Gateway)(nil)
	_ payment.Reverser = (*Gateway)(nil)
)

// Customer is the Stripe side of a subscriber.
type Customer struct {
	CustomerID      string `json:"customer_id" yaml:"customer_id"`
	PaymentMethodID string `json:"payment_method_id" yaml:"payment_method_id"`
}

// Directory resolves ledger principals to Stripe objects.
type Directory interface {
	Customer(subscriber address.Address) (Customer, bool)
	ConnectedAccount(merchantAuthority address.Address) (string, bool)
	Currency(mint address.Address) (string, bool)
}

// StaticDirectory is a Directory backed by maps keyed by base58 address.
type StaticDirectory struct {
	Customers  map[string]Customer `json:"customers" yaml:"customers"`
	Accounts   map[string]string   `json:"accounts" yaml:"accounts"`
	Currencies map[string]string   `json:"currencies" yaml:"currencies"`
}

func (d StaticDirectory) Customer(a address.Address) (Customer, bool) {
	c, ok := d.Customers[a.String()]
	return c, ok
}

func (d StaticDirectory) ConnectedAccount(a address.Address) (string, bool) {
	acct, ok := d.Accounts[a.String()]
	return acct, ok
}

func (d StaticDirectory) Currency(a address.Address) (string, bool) {
	cur, ok := d.Currencies[a.String()]
	return cur, ok
}

// maxSpentIntents bounds how many reversed or canceled intents one reference
// may skip over before Transfer gives up.
const maxSpentIntents = 8

// Gateway implements payment.Gateway over the Stripe API.
type Gateway struct {
	dir Directory

	newIntent    func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	getIntent    func(string, *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	cancelIntent func(string, *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
	newRefund    func(*stripe.RefundParams) (*stripe.Refund, error)
}

// New configures the Stripe client key and returns a gateway.
func New(apiKey string, dir Directory) *Gateway {
	stripe.Key = apiKey
	return &Gateway{
		dir:          dir,
		newIntent:    paymentintent.New,
		getIntent:    paymentintent.Get,
		cancelIntent: paymentintent.Cancel,
		newRefund:    refund.New,
	}
}

// Transfer charges the subscriber off-session and routes the funds to the
// merchant's connected account. Only a succeeded intent counts as paid.
//
// The transfer reference is the idempotency key. Stripe replays the original
// response for a reused key, so a replayed intent is re-read and, if it was
// refunded or canceled since, the payment is retried under a key chained to
// the spent intent. Any intent that did not succeed is canceled so it cannot
// collect funds after the operation has been abandoned.
func (g *Gateway) Transfer(_ context.Context, t payment.Transfer) (*payment.Receipt, error) {
	params, err := g.intentParams(t)
	if err != nil {
		return nil, err
	}

	key := t.Reference
	for range maxSpentIntents {
		if key != "" {
			params.SetIdempotencyKey(key)
		}

		pi, err := g.newIntent(params)
		if err != nil {
			return nil, fmt.Errorf("subwave/stripe: create payment intent: %w", err)
		}
		if replayed(pi) {
			live, err := g.getIntent(pi.ID, liveParams())
			if err != nil {
				return nil, fmt.Errorf("subwave/stripe: read replayed payment intent: %w", err)
			}
			if spent(live) {
				key = t.Reference + ":" + live.ID
				continue
			}
			pi = live
		}

		if pi.Status != stripe.PaymentIntentStatusSucceeded {
			return nil, g.abandon(pi)
		}
		return payment.NewReceipt(t, pi.ID), nil
	}
	return nil, fmt.Errorf("%w: reference %q only yields reversed payment intents", payment.ErrDeclined, t.Reference)
}

// abandon cancels an intent that did not succeed and reports the decline.
func (g *Gateway) abandon(pi *stripe.PaymentIntent) error {
	declined := fmt.Errorf("%w: payment intent %s is %s", payment.ErrDeclined, pi.ID, pi.Status)
	if pi.Status == stripe.PaymentIntentStatusCanceled {
		return declined
	}

	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.SetIdempotencyKey("cancel:" + pi.ID)
	if _, err := g.cancelIntent(pi.ID, params); err != nil {
		return fmt.Errorf("%w; subwave/stripe: cancel payment intent %s: %w", declined, pi.ID, err)
	}
	return declined
}

// replayed reports whether Stripe answered from its idempotency cache.
func replayed(pi *stripe.PaymentIntent) bool {
	return pi.LastResponse != nil && pi.LastResponse.Header.Get("Idempotent-Replayed") == "true"
}

// spent reports whether an intent can no longer back a new payment.
func spent(pi *stripe.PaymentIntent) bool {
	if pi.Status == stripe.PaymentIntentStatusCanceled {
		return true
	}
	return pi.LatestCharge != nil && (pi.LatestCharge.Refunded || pi.LatestCharge.AmountRefunded > 0)
}

func liveParams() *stripe.PaymentIntentParams {
	p := &stripe.PaymentIntentParams{}
	p.AddExpand("latest_charge")
	return p
}

// Reverse refunds the intent and pulls the funds back from the connected
// account.
func (g *Gateway) Reverse(_ context.Context, r *payment.Receipt) error {
	params := &stripe.RefundParams{
		PaymentIntent:   stripe.String(r.GatewayRef),
		ReverseTransfer: stripe.Bool(true),
	}
	params.SetIdempotencyKey("reverse:" + r.GatewayRef)

	if _, err := g.newRefund(params); err != nil {
		return fmt.Errorf("subwave/stripe: refund %s: %w", r.GatewayRef, err)
	}
	return nil
}

func (g *Gateway) intentParams(t payment.Transfer) (*stripe.PaymentIntentParams, error) {
	if t.Amount == 0 || t.Amount > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d", payment.ErrInvalidAmount, t.Amount)
	}
	if t.Authority != t.From {
		return nil, payment.ErrAuthorization
	}
	cust, ok := g.dir.Customer(t.From)
	if !ok {
		return nil, fmt.Errorf("%w: customer for %s", payment.ErrUnknownAccount, t.From)
	}
	acct, ok := g.dir.ConnectedAccount(t.To)
	if !ok {
		return nil, fmt.Errorf("%w: connected account for %s", payment.ErrUnknownAccount, t.To)
	}
	currency, ok := g.dir.Currency(t.Mint)
	if !ok {
		return nil, fmt.Errorf("%w: currency for mint %s", payment.ErrUnknownAccount, t.Mint)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(t.Amount)),
		Currency:      stripe.String(currency),
		Customer:      stripe.String(cust.CustomerID),
		PaymentMethod: stripe.String(cust.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(acct),
		},
	}
	params.AddMetadata("subscriber", t.From.String())
	params.AddMetadata("merchant", t.To.String())
	params.AddMetadata("reference", t.Reference)
	params.AddExpand("latest_charge")
	return params, nil
}
