// Package memory is an in-memory record store for tests and single-process
// deployments.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	subwavestore "github.com/xraph/subwave/store"
)

// compile-time interface check
var _ subwavestore.Store = (*Store)(nil)

type entry struct {
	kind address.Kind
	data []byte
}

// Store keeps records in a map. Stored bytes are copied in and out so
// callers never alias stored state.
type Store struct {
	mu      sync.RWMutex
	records map[address.Address]entry
	closed  bool
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[address.Address]entry)}
}

func (s *Store) Insert(_ context.Context, recs ...subwavestore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subwave.ErrStoreClosed
	}
	seen := make(map[address.Address]struct{}, len(recs))
	for _, r := range recs {
		if _, exists := s.records[r.Address]; exists {
			return subwave.ErrAlreadyExists
		}
		if _, dup := seen[r.Address]; dup {
			return subwave.ErrAlreadyExists
		}
		seen[r.Address] = struct{}{}
	}
	for _, r := range recs {
		s.records[r.Address] = entry{kind: r.Kind, data: clone(r.Data)}
	}
	return nil
}

func (s *Store) Get(_ context.Context, addr address.Address) (*subwavestore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, subwave.ErrStoreClosed
	}
	e, ok := s.records[addr]
	if !ok {
		return nil, subwave.ErrNotFound
	}
	return &subwavestore.Record{Address: addr, Kind: e.kind, Data: clone(e.data)}, nil
}

func (s *Store) Update(_ context.Context, r subwavestore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subwave.ErrStoreClosed
	}
	if _, ok := s.records[r.Address]; !ok {
		return subwave.ErrNotFound
	}
	s.records[r.Address] = entry{kind: r.Kind, data: clone(r.Data)}
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return subwave.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
