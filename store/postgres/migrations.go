package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the subwave store.
var Migrations = migrate.NewGroup("subwave")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_subwave_records",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subwave_records (
    address    TEXT PRIMARY KEY,
    kind       SMALLINT NOT NULL,
    data       BYTEA NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_subwave_records_kind ON subwave_records (kind);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subwave_records`)
				return err
			},
		},
	)
}
