package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/store"
	"github.com/xraph/subwave/store/memory"
	"github.com/xraph/subwave/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return memory.New() })
}

func TestClosed(t *testing.T) {
	s := memory.New()
	assert.NoError(t, s.Close())

	ctx := context.Background()
	_, err := s.Get(ctx, address.Zero)
	assert.ErrorIs(t, err, subwave.ErrStoreClosed)
	assert.ErrorIs(t, s.Insert(ctx, store.Record{}), subwave.ErrStoreClosed)
	assert.ErrorIs(t, s.Ping(ctx), subwave.ErrStoreClosed)
}
