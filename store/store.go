package store

import (
	"context"

	"github.com/xraph/subwave/address"
)

// Record is one encoded ledger record at its derived address.
type Record struct {
	Address address.Address
	Kind    address.Kind
	Data    []byte
}

// Store is the storage interface every backend implements.
//
// Records are opaque to the backend beyond their address and kind. Insert is
// all-or-nothing: if any address is already occupied nothing is written and
// subwave.ErrAlreadyExists is returned. Get and Update return
// subwave.ErrNotFound for an empty address.
type Store interface {
	Insert(ctx context.Context, recs ...Record) error
	Get(ctx context.Context, addr address.Address) (*Record, error)
	Update(ctx context.Context, rec Record) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
