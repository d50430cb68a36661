// Package merchant holds the merchant and subscription config records.
package merchant

import "github.com/xraph/subwave/address"

// MaxProductNameLen is the largest product name, in bytes, a config may carry.
const MaxProductNameLen = 50

// Merchant is the administrative record for one (authority, token mint) pair.
// It is created once and never mutated.
type Merchant struct {
	Address   address.Address `json:"address"`
	Authority address.Address `json:"authority"`
	TokenMint address.Address `json:"token_mint"`
}

// Config is a subscription product published by a merchant.
type Config struct {
	Address      address.Address `json:"address"`
	Merchant     address.Address `json:"merchant"`
	Price        uint64          `json:"price"`
	IntervalDays uint32          `json:"interval_days"`
	ProductName  string          `json:"product_name"`
	Active       bool            `json:"active"`
}

// ConfigPatch is a partial config update. Nil fields are left untouched.
type ConfigPatch struct {
	Price        *uint64 `json:"price,omitempty"`
	IntervalDays *uint32 `json:"interval_days,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ConfigPatch) IsEmpty() bool {
	return p.Price == nil && p.IntervalDays == nil && p.Active == nil
}

// Apply returns a copy of c with the present fields of p set.
// Applying the same patch twice yields the same config.
func (p ConfigPatch) Apply(c Config) Config {
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.IntervalDays != nil {
		c.IntervalDays = *p.IntervalDays
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	return c
}
