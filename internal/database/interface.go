package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXDB is implemented by both pgxpool.Pool and pgx.Tx, so the postgres
// backend can run against a pool in production and a rolled-back
// transaction in tests.
type PGXDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ PGXDB = (*pgxpool.Pool)(nil)
	_ PGXDB = (pgx.Tx)(nil)
)
