package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	t.Parallel()

	db := TestTx(t)
	ctx := context.Background()

	// TestPool already migrated; running again inside the tx must be a no-op.
	require.NoError(t, RunMigrations(ctx, db))

	var columns []string
	rows, err := db.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = 'ledger_state'
		ORDER BY ordinal_position
	`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"key", "payload", "updated_at"}, columns)
}

func TestLedgerStateUpsert(t *testing.T) {
	t.Parallel()

	db := TestTx(t)
	ctx := context.Background()

	const upsert = `INSERT INTO ledger_state (key, payload) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`

	_, err := db.Exec(ctx, upsert, "mido_repair_shop_v1", []byte(`{"clients":[]}`))
	require.NoError(t, err)
	_, err = db.Exec(ctx, upsert, "mido_repair_shop_v1", []byte(`{"clients":[{"id":"A"}]}`))
	require.NoError(t, err)

	var (
		count   int
		payload []byte
	)
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM ledger_state WHERE key = $1", "mido_repair_shop_v1").Scan(&count))
	require.NoError(t, db.QueryRow(ctx, "SELECT payload FROM ledger_state WHERE key = $1", "mido_repair_shop_v1").Scan(&payload))
	require.Equal(t, 1, count)
	require.JSONEq(t, `{"clients":[{"id":"A"}]}`, string(payload))
}
