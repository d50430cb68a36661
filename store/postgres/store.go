// Package postgres is a PostgreSQL record store on the grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	subwavestore "github.com/xraph/subwave/store"
)

// compile-time interface check
var _ subwavestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
//
// All records share one table keyed by address. A multi-record insert is a
// single INSERT statement, so it commits entirely or not at all.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("subwave/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("subwave/postgres: migration failed: %w", err)
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
	if len(recs) == 0 {
		return nil
	}

	taken, err := s.anyExists(ctx, recs)
	if err != nil {
		return err
	}
	if taken {
		return subwave.ErrAlreadyExists
	}

	t := now()
	models := make([]recordModel, len(recs))
	for i, r := range recs {
		models[i] = toRecordModel(r, t)
	}

	if _, err := s.pg.NewInsert(&models).Exec(ctx); err != nil {
		// A concurrent writer may have claimed an address between the check
		// and the insert; the statement then fails on the primary key.
		if taken, checkErr := s.anyExists(ctx, recs); checkErr == nil && taken {
			return subwave.ErrAlreadyExists
		}
		return fmt.Errorf("subwave/postgres: insert records: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, addr address.Address) (*subwavestore.Record, error) {
	m := new(recordModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", addr.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subwave.ErrNotFound
		}
		return nil, fmt.Errorf("subwave/postgres: get record: %w", err)
	}
	return fromRecordModel(m)
}

func (s *Store) Update(ctx context.Context, r subwavestore.Record) error {
	res, err := s.pg.NewUpdate((*recordModel)(nil)).
		Set("kind = $1", int16(r.Kind)).
		Set("data = $2", r.Data).
		Set("updated_at = $3", now()).
		Where("address = $4", r.Address.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subwave/postgres: update record: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return subwave.ErrNotFound
	}
	return nil
}

func (s *Store) anyExists(ctx context.Context, recs []subwavestore.Record) (bool, error) {
	for _, r := range recs {
		var n int64
		err := s.pg.NewRaw(`SELECT COUNT(*) FROM subwave_records WHERE address = $1`, r.Address.String()).
			Scan(ctx, &n)
		if err != nil {
			return false, fmt.Errorf("subwave/postgres: check record: %w", err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
