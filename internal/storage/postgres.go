package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/repair-ledger/internal/database"
)

// Postgres stores payloads in the ledger_state table.
type Postgres struct {
	db      database.PGXDB
	closeFn func()
}

// NewPostgres wraps an already migrated connection. closeFn, if non-nil, is
// called by Close; pass pool.Close for an owned pool.
func NewPostgres(db database.PGXDB, closeFn func()) *Postgres {
	return &Postgres{db: db, closeFn: closeFn}
}

// OpenPostgres connects to databaseURL and runs migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewPostgres(pool, pool.Close), nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRow(ctx, `SELECT payload FROM ledger_state WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return payload, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO ledger_state (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close releases the connection if the backend owns it.
func (p *Postgres) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}
