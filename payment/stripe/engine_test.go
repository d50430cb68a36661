package stripe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/clock"
	"github.com/xraph/subwave/store"
	"github.com/xraph/subwave/store/memory"
)

var errWriteFailed = errors.New("write failed")

// failingStore rejects subscription writes while fail is set.
type failingStore struct {
	store.Store
	fail atomic.Bool
}

func (s *failingStore) Insert(ctx context.Context, recs ...store.Record) error {
	if s.fail.Load() && recs[0].Kind == address.KindSubscription {
		return errWriteFailed
	}
	return s.Store.Insert(ctx, recs...)
}

func (s *failingStore) Update(ctx context.Context, r store.Record) error {
	if s.fail.Load() && r.Kind == address.KindSubscription {
		return errWriteFailed
	}
	return s.Store.Update(ctx, r)
}

func TestEngineRetryAfterReversedCommit(t *testing.T) {
	ctx := context.Background()
	api := newFakeStripe()
	st := &failingStore{Store: memory.New()}
	engine := subwave.New(st, subwave.WithGateway(api.gateway()), subwave.WithClock(clock.NewManual(0)))

	_, cfg, err := engine.RegisterMerchant(ctx, authority, mint, 1000, 30, "pro")
	require.NoError(t, err)

	st.fail.Store(true)
	_, err = engine.Subscribe(ctx, subscriber, cfg.Address)
	require.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, int64(0), api.net())

	st.fail.Store(false)
	sub, err := engine.Subscribe(ctx, subscriber, cfg.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(sub.TotalPaid), api.net())

	st.fail.Store(true)
	_, err = engine.Renew(ctx, subscriber, sub.Address)
	require.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, int64(sub.TotalPaid), api.net())

	st.fail.Store(false)
	sub, err = engine.Renew(ctx, subscriber, sub.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), sub.TotalPaid)
	assert.Equal(t, int64(sub.TotalPaid), api.net())
}
