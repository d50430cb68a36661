// Package mongo is a MongoDB record store on the grove ORM.
//
// Multi-record inserts run in a transaction, so the server must be a replica
// set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	subwavestore "github.com/xraph/subwave/store"
)

// Collection name constants.
const (
	colRecords = "subwave_records"
)

// compile-time interface check
var _ subwavestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all subwave collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("subwave/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, recs ...subwavestore.Record) error {
	switch len(recs) {
	case 0:
		return nil
	case 1:
		_, err := s.mdb.NewInsert(toRecordModel(recs[0], now())).Exec(ctx)
		return insertErr(err)
	}

	t := now()
	docs := make([]any, len(recs))
	for i, r := range recs {
		docs[i] = toRecordModel(r, t)
	}

	coll := s.mdb.Collection(colRecords)
	sess, err := coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("subwave/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return coll.InsertMany(ctx, docs)
	})
	return insertErr(err)
}

func (s *Store) Get(ctx context.Context, addr address.Address) (*subwavestore.Record, error) {
	var m recordModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subwave.ErrNotFound
		}
		return nil, fmt.Errorf("subwave/mongo: get record: %w", err)
	}
	return fromRecordModel(&m)
}

func (s *Store) Update(ctx context.Context, r subwavestore.Record) error {
	res, err := s.mdb.NewUpdate((*recordModel)(nil)).
		Filter(bson.M{"_id": r.Address.String()}).
		Set("kind", int32(r.Kind)).
		Set("data", r.Data).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subwave/mongo: update record: %w", err)
	}
	if res.MatchedCount() == 0 {
		return subwave.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func insertErr(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return subwave.ErrAlreadyExists
	default:
		return fmt.Errorf("subwave/mongo: insert records: %w", err)
	}
}

// migrationIndexes returns the index definitions for all subwave collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colRecords: {
			{Keys: bson.D{{Key: "kind", Value: 1}}},
			{
				Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("kind_created_at"),
			},
		},
	}
}
