package subwave

import (
	"context"
	"fmt"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/codec"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/store"
	"github.com/xraph/subwave/subscription"
)

// records encodes typed records onto the store. Reading an address that
// holds a different kind of record is reported as not found.
type records struct {
	store store.Store
}

func (r *records) get(ctx context.Context, addr address.Address, kind address.Kind) (*store.Record, error) {
	rec, err := r.store.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if rec.Kind != kind {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, addr)
	}
	tag, err := codec.KindOf(rec.Data)
	if err != nil {
		return nil, decodeErr(kind, addr, err)
	}
	if tag != rec.Kind {
		return nil, decodeErr(kind, addr, fmt.Errorf("%w: stored as %s, payload is %s", codec.ErrKindMismatch, rec.Kind, tag))
	}
	return rec, nil
}

func decodeErr(kind address.Kind, addr address.Address, err error) error {
	return fmt.Errorf("subwave: decode %s %s: %w", kind, addr, err)
}

func configRecord(c *merchant.Config) (store.Record, error) {
	data, err := codec.EncodeConfig(c)
	if err != nil {
		return store.Record{}, err
	}
	return store.Record{Address: c.Address, Kind: address.KindConfig, Data: data}, nil
}

func subscriptionRecord(s *subscription.Subscription) store.Record {
	return store.Record{Address: s.Address, Kind: address.KindSubscription, Data: codec.EncodeSubscription(s)}
}

// registerMerchant writes a merchant and its founding config in one insert.
func (r *records) registerMerchant(ctx context.Context, m *merchant.Merchant, c *merchant.Config) error {
	crec, err := configRecord(c)
	if err != nil {
		return err
	}
	mrec := store.Record{Address: m.Address, Kind: address.KindMerchant, Data: codec.EncodeMerchant(m)}
	return r.store.Insert(ctx, mrec, crec)
}

func (r *records) getMerchant(ctx context.Context, addr address.Address) (*merchant.Merchant, error) {
	rec, err := r.get(ctx, addr, address.KindMerchant)
	if err != nil {
		return nil, err
	}
	m, err := codec.DecodeMerchant(addr, rec.Data)
	if err != nil {
		return nil, decodeErr(address.KindMerchant, addr, err)
	}
	return m, nil
}

func (r *records) createConfig(ctx context.Context, c *merchant.Config) error {
	rec, err := configRecord(c)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, rec)
}

func (r *records) getConfig(ctx context.Context, addr address.Address) (*merchant.Config, error) {
	rec, err := r.get(ctx, addr, address.KindConfig)
	if err != nil {
		return nil, err
	}
	c, err := codec.DecodeConfig(addr, rec.Data)
	if err != nil {
		return nil, decodeErr(address.KindConfig, addr, err)
	}
	return c, nil
}

func (r *records) updateConfig(ctx context.Context, c *merchant.Config) error {
	rec, err := configRecord(c)
	if err != nil {
		return err
	}
	return r.store.Update(ctx, rec)
}

func (r *records) createSubscription(ctx context.Context, s *subscription.Subscription) error {
	return r.store.Insert(ctx, subscriptionRecord(s))
}

func (r *records) getSubscription(ctx context.Context, addr address.Address) (*subscription.Subscription, error) {
	rec, err := r.get(ctx, addr, address.KindSubscription)
	if err != nil {
		return nil, err
	}
	s, err := codec.DecodeSubscription(addr, rec.Data)
	if err != nil {
		return nil, decodeErr(address.KindSubscription, addr, err)
	}
	return s, nil
}

func (r *records) updateSubscription(ctx context.Context, s *subscription.Subscription) error {
	return r.store.Update(ctx, subscriptionRecord(s))
}
