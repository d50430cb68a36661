// Package storetest is a conformance suite for store.Store implementations.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/store"
)

func record(kind address.Kind, name string, payload ...byte) store.Record {
	return store.Record{
		Address: address.Derive(kind, []byte(name)),
		Kind:    kind,
		Data:    append([]byte{byte(kind), 1}, payload...),
	}
}

// Run exercises s against the store contract. newStore must return an empty
// store; Run closes it.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("InsertGet", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		rec := record(address.KindMerchant, "m1", 0xaa, 0xbb)
		require.NoError(t, s.Insert(ctx, rec))

		got, err := s.Get(ctx, rec.Address)
		require.NoError(t, err)
		assert.Equal(t, rec.Address, got.Address)
		assert.Equal(t, rec.Kind, got.Kind)
		assert.Equal(t, rec.Data, got.Data)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Get(context.Background(), address.Derive(address.KindConfig, []byte("nope")))
		assert.ErrorIs(t, err, subwave.ErrNotFound)
	})

	t.Run("InsertDuplicate", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		rec := record(address.KindConfig, "c1", 1)
		require.NoError(t, s.Insert(ctx, rec))

		dup := rec
		dup.Data = []byte{byte(address.KindConfig), 1, 2}
		assert.ErrorIs(t, s.Insert(ctx, dup), subwave.ErrAlreadyExists)

		got, err := s.Get(ctx, rec.Address)
		require.NoError(t, err)
		assert.Equal(t, rec.Data, got.Data, "duplicate insert must not overwrite")
	})

	t.Run("InsertPairIsAtomic", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		taken := record(address.KindConfig, "taken", 1)
		require.NoError(t, s.Insert(ctx, taken))

		fresh := record(address.KindMerchant, "fresh", 2)
		assert.ErrorIs(t, s.Insert(ctx, fresh, taken), subwave.ErrAlreadyExists)

		_, err := s.Get(ctx, fresh.Address)
		assert.ErrorIs(t, err, subwave.ErrNotFound, "no half of a failed pair may be visible")
	})

	t.Run("InsertPair", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		a := record(address.KindMerchant, "a", 1)
		b := record(address.KindConfig, "b", 2)
		require.NoError(t, s.Insert(ctx, a, b))

		for _, r := range []store.Record{a, b} {
			got, err := s.Get(ctx, r.Address)
			require.NoError(t, err)
			assert.Equal(t, r.Data, got.Data)
		}
	})

	t.Run("Update", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		rec := record(address.KindSubscription, "s1", 1)
		require.NoError(t, s.Insert(ctx, rec))

		rec.Data = []byte{byte(address.KindSubscription), 1, 9, 9}
		require.NoError(t, s.Update(ctx, rec))

		got, err := s.Get(ctx, rec.Address)
		require.NoError(t, err)
		assert.Equal(t, rec.Data, got.Data)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		err := s.Update(context.Background(), record(address.KindSubscription, "ghost", 1))
		assert.ErrorIs(t, err, subwave.ErrNotFound)
	})

	t.Run("ReturnedDataIsACopy", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		rec := record(address.KindMerchant, "copy", 7)
		require.NoError(t, s.Insert(ctx, rec))
		rec.Data[2] = 0

		got, err := s.Get(ctx, rec.Address)
		require.NoError(t, err)
		got.Data[2] = 0

		again, err := s.Get(ctx, rec.Address)
		require.NoError(t, err)
		assert.Equal(t, byte(7), again.Data[2])
	})

	t.Run("ConcurrentInsertSingleWinner", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		rec := record(address.KindSubscription, "race", 1)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Insert(ctx, rec); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, subwave.ErrAlreadyExists)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		require.NoError(t, s.Migrate(context.Background()))
		assert.NoError(t, s.Ping(context.Background()))
	})
}
