package subwave

import (
	"context"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/merchant"
)

// ──────────────────────────────────────────────────
// Merchant & Config Management
// ──────────────────────────────────────────────────

// RegisterMerchant creates the merchant for (authority, tokenMint) together
// with its founding config. Both records are written atomically; a second
// registration for the same pair fails with ErrAlreadyExists.
func (e *Engine) RegisterMerchant(
	ctx context.Context,
	authority, tokenMint address.Address,
	price uint64,
	intervalDays uint32,
	productName string,
) (*merchant.Merchant, *merchant.Config, error) {
	if authority.IsZero() {
		return nil, nil, &ValidationError{Field: "authority", Err: ErrZeroAddress}
	}
	if tokenMint.IsZero() {
		return nil, nil, &ValidationError{Field: "token_mint", Err: ErrZeroAddress}
	}
	if err := validateConfig(price, intervalDays, productName); err != nil {
		return nil, nil, err
	}

	m := &merchant.Merchant{
		Address:   address.MerchantAddress(authority, tokenMint),
		Authority: authority,
		TokenMint: tokenMint,
	}
	c := &merchant.Config{
		Address:      address.ConfigAddress(m.Address, productName),
		Merchant:     m.Address,
		Price:        price,
		IntervalDays: intervalDays,
		ProductName:  productName,
		Active:       true,
	}

	err := e.withLock(ctx, func() error {
		return e.records.registerMerchant(ctx, m, c)
	}, m.Address, c.Address)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("merchant registered",
		"merchant", m.Address.String(),
		"authority", authority.String(),
		"config", c.Address.String(),
		"price", price,
		"interval_days", intervalDays,
	)
	e.plugins.EmitMerchantRegistered(ctx, m, c)

	return m, c, nil
}

// CreateConfig publishes an additional product for an existing merchant.
// Only the merchant's authority may call it.
func (e *Engine) CreateConfig(
	ctx context.Context,
	authority, merchantAddr address.Address,
	price uint64,
	intervalDays uint32,
	productName string,
) (*merchant.Config, error) {
	m, err := e.records.getMerchant(ctx, merchantAddr)
	if err != nil {
		return nil, err
	}
	if m.Authority != authority {
		return nil, ErrUnauthorized
	}
	if err := validateConfig(price, intervalDays, productName); err != nil {
		return nil, err
	}

	c := &merchant.Config{
		Address:      address.ConfigAddress(m.Address, productName),
		Merchant:     m.Address,
		Price:        price,
		IntervalDays: intervalDays,
		ProductName:  productName,
		Active:       true,
	}

	err = e.withLock(ctx, func() error {
		return e.records.createConfig(ctx, c)
	}, c.Address)
	if err != nil {
		return nil, err
	}

	e.logger.Info("config created",
		"merchant", m.Address.String(),
		"config", c.Address.String(),
		"product", productName,
	)
	e.plugins.EmitConfigCreated(ctx, c)

	return c, nil
}

// UpdateConfig applies a partial update to a config. The caller must be the
// merchant's authority and the config must belong to that merchant. Every
// present field is validated before any is applied; absent fields are left
// untouched, so applying the same patch twice is a no-op the second time.
func (e *Engine) UpdateConfig(
	ctx context.Context,
	authority, merchantAddr, configAddr address.Address,
	patch merchant.ConfigPatch,
) (*merchant.Config, error) {
	var (
		prev, next *merchant.Config
		changed    bool
	)

	err := e.withLock(ctx, func() error {
		m, err := e.records.getMerchant(ctx, merchantAddr)
		if err != nil {
			return err
		}
		if m.Authority != authority {
			return ErrUnauthorized
		}

		prev, err = e.records.getConfig(ctx, configAddr)
		if err != nil {
			return err
		}
		if prev.Merchant != m.Address {
			return ErrInvalidReference
		}
		if err := validatePatch(patch); err != nil {
			return err
		}

		updated := patch.Apply(*prev)
		next = &updated
		if updated == *prev {
			return nil
		}
		changed = true
		return e.records.updateConfig(ctx, next)
	}, configAddr)
	if err != nil {
		return nil, err
	}

	if changed {
		e.logger.Info("config updated",
			"config", configAddr.String(),
			"price", next.Price,
			"interval_days", next.IntervalDays,
			"active", next.Active,
		)
		e.plugins.EmitConfigUpdated(ctx, prev, next)
	}

	return next, nil
}

// GetMerchant retrieves a merchant by address.
func (e *Engine) GetMerchant(ctx context.Context, addr address.Address) (*merchant.Merchant, error) {
	return e.records.getMerchant(ctx, addr)
}

// GetConfig retrieves a subscription config by address.
func (e *Engine) GetConfig(ctx context.Context, addr address.Address) (*merchant.Config, error) {
	return e.records.getConfig(ctx, addr)
}

// ──────────────────────────────────────────────────
// Validation
// ──────────────────────────────────────────────────

func validateConfig(price uint64, intervalDays uint32, productName string) error {
	if price == 0 {
		return &ValidationError{Field: "price", Err: ErrInvalidPrice}
	}
	if intervalDays == 0 {
		return &ValidationError{Field: "interval_days", Err: ErrInvalidInterval}
	}
	if len(productName) > merchant.MaxProductNameLen {
		return &ValidationError{Field: "product_name", Err: ErrProductNameTooLong}
	}
	return nil
}

func validatePatch(p merchant.ConfigPatch) error {
	if p.Price != nil && *p.Price == 0 {
		return &ValidationError{Field: "price", Err: ErrInvalidPrice}
	}
	if p.IntervalDays != nil && *p.IntervalDays == 0 {
		return &ValidationError{Field: "interval_days", Err: ErrInvalidInterval}
	}
	return nil
}
