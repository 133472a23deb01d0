package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the variable that enables Postgres integration tests.
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

// TestPool returns a pool shared by every test in the binary, migrated once.
// The test is skipped when TEST_DATABASE_URL is unset.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" {
		t.Skip(TestDatabaseURLEnv + " not set, skipping integration test")
	}

	sharedPoolOnce.Do(func() {
		ctx := context.Background()
		if sharedPool, sharedPoolErr = Connect(ctx, url); sharedPoolErr == nil {
			sharedPoolErr = RunMigrations(ctx, sharedPool)
		}
	})
	if sharedPoolErr != nil {
		t.Fatalf("failed to set up test database: %v", sharedPoolErr)
	}
	return sharedPool
}

// TestTx opens a transaction on the shared pool and rolls it back at cleanup,
// so ledger rows written by one test are never seen by another.
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}
