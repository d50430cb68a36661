// Package payment defines the boundary to the value-transfer mechanism that
// collects subscription payments.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/id"
)

var (
	ErrInsufficientFunds = errors.New("payment: insufficient funds")
	ErrAuthorization     = errors.New("payment: transfer not authorized by source account")
	ErrInvalidAmount     = errors.New("payment: invalid amount")
	ErrUnknownAccount    = errors.New("payment: unknown account")
	ErrDeclined          = errors.New("payment: declined")
)

// Transfer moves Amount base units of Mint from From to To.
type Transfer struct {
	From   address.Address `json:"from"`
	To     address.Address `json:"to"`
	Mint   address.Address `json:"mint"`
	Amount uint64          `json:"amount"`

	// Authority is the principal that signed the operation. Gateways reject
	// transfers the source account did not authorize.
	Authority address.Address `json:"authority"`

	// Reference is stable for one logical payment so gateways can
	// deduplicate retries.
	Reference string `json:"reference"`
}

// Receipt proves a completed transfer.
type Receipt struct {
	ID         id.ID     `json:"id"`
	Transfer   Transfer  `json:"transfer"`
	GatewayRef string    `json:"gateway_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewReceipt stamps a receipt for t.
func NewReceipt(t Transfer, gatewayRef string) *Receipt {
	return &Receipt{
		ID:         id.NewReceiptID(),
		Transfer:   t,
		GatewayRef: gatewayRef,
		CreatedAt:  time.Now().UTC(),
	}
}

// Gateway executes transfers. A transfer either completes and returns a
// receipt, or fails and leaves both balances untouched.
type Gateway interface {
	Transfer(ctx context.Context, t Transfer) (*Receipt, error)
}

// Reverser is implemented by gateways that can undo a completed transfer.
// It is only used to compensate a payment whose ledger commit failed.
// Once a receipt is reversed, its reference no longer deduplicates: a later
// Transfer with the same reference must collect the amount again.
type Reverser interface {
	Reverse(ctx context.Context, r *Receipt) error
}
