// Package leveldb is an embedded, persistent record store on goleveldb.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	subwavestore "github.com/xraph/subwave/store"
)

// compile-time interface check
var _ subwavestore.Store = (*Store)(nil)

var keyPrefix = []byte("rec/")

// Store keeps each record under "rec/<address>" with the kind tag as the
// first value byte. Insert checks and writes under one mutex and commits as
// a single batch, so a pair of records lands together or not at all.
type Store struct {
	mu sync.Mutex
	db *leveldb.DB
}

// Open creates or opens a database directory at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("subwave/leveldb: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a database backed by memory storage.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("subwave/leveldb: open memory: %w", err)
	}
	return &Store{db: db}, nil
}

func key(addr address.Address) []byte {
	k := make([]byte, 0, len(keyPrefix)+address.Size)
	k = append(k, keyPrefix...)
	return append(k, addr[:]...)
}

func value(r subwavestore.Record) []byte {
	v := make([]byte, 0, 1+len(r.Data))
	v = append(v, byte(r.Kind))
	return append(v, r.Data...)
}

func (s *Store) Insert(_ context.Context, recs ...subwavestore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	seen := make(map[address.Address]struct{}, len(recs))
	for _, r := range recs {
		if _, dup := seen[r.Address]; dup {
			return subwave.ErrAlreadyExists
		}
		seen[r.Address] = struct{}{}

		exists, err := s.db.Has(key(r.Address), nil)
		if err != nil {
			return wrap("insert", err)
		}
		if exists {
			return subwave.ErrAlreadyExists
		}
		batch.Put(key(r.Address), value(r))
	}

	if err := s.db.Write(batch, nil); err != nil {
		return wrap("insert", err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, addr address.Address) (*subwavestore.Record, error) {
	v, err := s.db.Get(key(addr), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, subwave.ErrNotFound
		}
		return nil, wrap("get", err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("subwave/leveldb: get %s: empty value", addr)
	}
	return &subwavestore.Record{Address: addr, Kind: address.Kind(v[0]), Data: v[1:]}, nil
}

func (s *Store) Update(_ context.Context, r subwavestore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.db.Has(key(r.Address), nil)
	if err != nil {
		return wrap("update", err)
	}
	if !exists {
		return subwave.ErrNotFound
	}
	if err := s.db.Put(key(r.Address), value(r), nil); err != nil {
		return wrap("update", err)
	}
	return nil
}

func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.db.GetProperty("leveldb.num-files-at-level0"); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func wrap(op string, err error) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return subwave.ErrStoreClosed
	}
	return fmt.Errorf("subwave/leveldb: %s: %w", op, err)
}
