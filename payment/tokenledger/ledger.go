// Package tokenledger is an in-process token balance ledger implementing
// payment.Gateway. Balances are tracked per (holder, mint).
package tokenledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/payment"
)

var (
	_ payment.Gateway  = (*Ledger)(nil)
	_ payment.Reverser = (*Ledger)(nil)
)

type account struct {
	holder address.Address
	mint   address.Address
}

// Ledger holds token balances in memory.
type Ledger struct {
	mu       sync.Mutex
	balances map[account]uint64
	seq      uint64
	applied  map[string]*payment.Receipt
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[account]uint64),
		applied:  make(map[string]*payment.Receipt),
	}
}

// Credit mints amount to holder.
func (l *Ledger) Credit(holder, mint address.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := account{holder, mint}
	next := l.balances[acct] + amount
	if next < amount {
		return fmt.Errorf("tokenledger: credit %s: balance overflow", holder)
	}
	l.balances[acct] = next
	return nil
}

// Balance returns the holder's balance of mint.
func (l *Ledger) Balance(holder, mint address.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account{holder, mint}]
}

// Transfer debits From and credits To atomically. A reference that was
// already applied returns the original receipt without moving funds again.
func (l *Ledger) Transfer(_ context.Context, t payment.Transfer) (*payment.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.Reference != "" {
		if r, ok := l.applied[t.Reference]; ok {
			return r, nil
		}
	}
	if t.Amount == 0 {
		return nil, payment.ErrInvalidAmount
	}
	if t.Authority != t.From {
		return nil, payment.ErrAuthorization
	}
	if err := l.move(account{t.From, t.Mint}, account{t.To, t.Mint}, t.Amount); err != nil {
		return nil, err
	}

	l.seq++
	r := payment.NewReceipt(t, "tl-"+strconv.FormatUint(l.seq, 10))
	if t.Reference != "" {
		l.applied[t.Reference] = r
	}
	return r, nil
}

// Reverse moves a receipt's amount back to its source.
func (l *Ledger) Reverse(_ context.Context, r *payment.Receipt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := r.Transfer
	if err := l.move(account{t.To, t.Mint}, account{t.From, t.Mint}, t.Amount); err != nil {
		return fmt.Errorf("tokenledger: reverse %s: %w", r.ID, err)
	}
	if t.Reference != "" {
		delete(l.applied, t.Reference)
	}
	return nil
}

func (l *Ledger) move(from, to account, amount uint64) error {
	if from == to {
		return nil
	}
	have := l.balances[from]
	if have < amount {
		return fmt.Errorf("%w: have %d, need %d", payment.ErrInsufficientFunds, have, amount)
	}
	credited := l.balances[to] + amount
	if credited < amount {
		return fmt.Errorf("tokenledger: credit %s: balance overflow", to.holder)
	}
	l.balances[from] = have - amount
	l.balances[to] = credited
	return nil
}
