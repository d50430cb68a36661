package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the subwave store (SQLite).
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
    kind       INTEGER NOT NULL,
    data       BLOB NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
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
