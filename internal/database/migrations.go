package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema. Each snapshot key is one row.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS ledger_state (
			key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
