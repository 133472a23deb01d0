package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/repair-ledger/internal/backup"
	"gitlab.com/yelinaung/repair-ledger/internal/config"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

func newMemoryApp(t *testing.T, bc config.BackupConfig) *app {
	t.Helper()
	a, err := newApp(context.Background(), &config.Config{StoreDriver: "memory", Backup: bc})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func seedApp(t *testing.T, a *app) models.Repair {
	t.Helper()
	ctx := context.Background()
	c, err := a.store.AddClient(ctx, models.Client{Name: "Ali", Phone: "01000000000"})
	require.NoError(t, err)
	d, err := a.store.AddDevice(ctx, models.Device{ClientID: c.ID, Brand: "Apple", Model: "iPhone 13"})
	require.NoError(t, err)
	r, err := a.store.AddRepair(ctx, models.Repair{DeviceID: d.ID, Problem: "Battery", CostParts: decimal.NewFromInt(200)})
	require.NoError(t, err)
	_, err = a.store.AddExpense(ctx, models.Expense{Title: "Rent", Amount: decimal.NewFromInt(1000), Category: models.CategoryRent})
	require.NoError(t, err)
	return r
}

func TestNewApp_UnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := newApp(context.Background(), &config.Config{StoreDriver: "floppy"})
	require.ErrorContains(t, err, "failed to open store")
}

func TestArchiveFromConfig(t *testing.T) {
	t.Parallel()

	a, err := archiveFromConfig(context.Background(), config.BackupConfig{})
	require.NoError(t, err)
	require.Nil(t, a)

	a, err = archiveFromConfig(context.Background(), config.BackupConfig{Dir: "/tmp/backups"})
	require.NoError(t, err)
	require.Equal(t, backup.DirArchive{Dir: "/tmp/backups"}, a)
}

func TestExportData(t *testing.T) {
	t.Parallel()

	t.Run("full backup is recorded once delivered", func(t *testing.T) {
		t.Parallel()
		a := newMemoryApp(t, config.BackupConfig{})
		seedApp(t, a)
		ctx := context.Background()

		f, err := exportData(ctx, a, "", false, false)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(f.name, "Mido_Full_Backup_"))
		require.Empty(t, f.location)

		snap, err := backup.ParseFull(f.data)
		require.NoError(t, err)
		require.Len(t, snap.Repairs, 1)

		_, ok, err := a.backups.LastBackup(ctx)
		require.NoError(t, err)
		require.False(t, ok, "not recorded before the file is written")

		require.NoError(t, f.delivered(ctx, a))
		at, ok, err := a.backups.LastBackup(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, a.store.Now(), at)
	})

	t.Run("failed write leaves no backup recorded", func(t *testing.T) {
		t.Parallel()
		a := newMemoryApp(t, config.BackupConfig{})
		seedApp(t, a)
		ctx := context.Background()

		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))

		f, err := exportData(ctx, a, "", false, false)
		require.NoError(t, err)
		_, err = writeExport(filepath.Join(blocker, "sub"), f.name, f.data)
		require.Error(t, err)

		_, ok, err := a.backups.LastBackup(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("archive without target", func(t *testing.T) {
		t.Parallel()
		a := newMemoryApp(t, config.BackupConfig{})

		_, err := exportData(context.Background(), a, "", false, true)
		require.ErrorIs(t, err, backup.ErrNoArchive)
	})

	t.Run("archive to dir", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		a := newMemoryApp(t, config.BackupConfig{Dir: dir})
		seedApp(t, a)
		ctx := context.Background()

		f, err := exportData(ctx, a, "", false, true)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, f.name), f.location)
		require.Nil(t, f.pending, "archive already recorded the backup")

		onDisk, err := os.ReadFile(f.location)
		require.NoError(t, err)
		require.Equal(t, f.data, onDisk)

		_, ok, err := a.backups.LastBackup(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("table", func(t *testing.T) {
		t.Parallel()
		a := newMemoryApp(t, config.BackupConfig{})
		r := seedApp(t, a)

		f, err := exportData(context.Background(), a, "Repairs", false, false)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(f.name, "Mido_REPAIRS_"))
		require.Nil(t, f.pending)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal(f.data, &rows))
		require.Len(t, rows, 1)
		require.Equal(t, r.ID, rows[0]["id"])
	})

	t.Run("csv", func(t *testing.T) {
		t.Parallel()
		a := newMemoryApp(t, config.BackupConfig{})
		seedApp(t, a)

		f, err := exportData(context.Background(), a, "expenses", true, false)
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(f.name, ".csv"))
		require.Contains(t, string(f.data), "Rent")
	})

	t.Run("csv needs a supported table", func(t *testing.T) {
		t.Parallel()
		a := newMemoryApp(t, config.BackupConfig{})

		_, err := exportData(context.Background(), a, "", true, false)
		require.Error(t, err)
		_, err = exportData(context.Background(), a, "clients", true, false)
		require.ErrorContains(t, err, "csv export supports repairs and expenses")
	})

	t.Run("unknown table", func(t *testing.T) {
		t.Parallel()
		a := newMemoryApp(t, config.BackupConfig{})

		_, err := exportData(context.Background(), a, "parts", false, false)
		require.ErrorIs(t, err, backup.ErrUnknownTable)
	})
}

func TestWriteExport(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	path, err := writeExport(dir, "x.json", []byte("{}"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "x.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("{}"), data)
}

func TestReadInput(t *testing.T) {
	t.Parallel()

	data, err := readInput(strings.NewReader("from stdin"), "-")
	require.NoError(t, err)
	require.Equal(t, "from stdin", string(data))

	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))
	data, err = readInput(nil, path)
	require.NoError(t, err)
	require.Equal(t, "from file", string(data))

	_, err = readInput(nil, filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "failed to read")
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	a := newMemoryApp(t, config.BackupConfig{})
	ctx := context.Background()
	r := seedApp(t, a)
	_, _, err := a.store.UpdateRepair(ctx, r.ID, models.RepairPatch{Status: models.Ptr(models.StatusDone)})
	require.NoError(t, err)

	snap, err := a.store.Load(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	now := a.store.Now()
	writeSummary(&buf, snap, now, 3)

	out := buf.String()
	require.Contains(t, out, now.Format("January 2006"))
	require.Contains(t, out, "Clients:      1")
	require.Contains(t, out, "Income:       200.00")
	require.Contains(t, out, "Net:          -800.00")
	require.Contains(t, out, "Daily income:")
	require.Contains(t, out, now.Format(time.DateOnly)+"  200.00")
	require.Equal(t, 3, strings.Count(out, "\n  "))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	require.Contains(t, buf.String(), AppName+" "+Version)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	names := make(map[string]bool)
	for _, c := range GetRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "export", "import", "catalog", "summary", "version"} {
		require.True(t, names[want], "missing command %s", want)
	}
}
