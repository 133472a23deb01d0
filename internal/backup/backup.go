// Package backup moves the ledger snapshot across the system boundary as
// JSON exchange files and tracks when the last full backup was taken.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/repair-ledger/internal/ledger"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/storage"
)

// LastBackupKey is the side-channel key holding the last backup time.
const LastBackupKey = "mido_last_backup_date"

var (
	// ErrInvalidBackup is returned for payloads that are not JSON objects or
	// expose none of the clients, devices or repairs collections.
	ErrInvalidBackup = errors.New("invalid backup file")
	// ErrBareList is returned when a single-table export is offered as a full backup.
	ErrBareList = errors.New("file is a single table export, not a full backup")
	// ErrIncompleteBackup is returned when the clients collection is missing or not a list.
	ErrIncompleteBackup = errors.New("backup has no clients list")
	// ErrUnknownTable is returned by ExportTable for names outside Tables.
	ErrUnknownTable = errors.New("unknown table")
)

// Table names an exportable collection.
type Table string

// Exportable tables.
const (
	TableClients  Table = "clients"
	TableDevices  Table = "devices"
	TableRepairs  Table = "repairs"
	TableExpenses Table = "expenses"
)

// Tables lists the exportable tables.
var Tables = []Table{TableClients, TableDevices, TableRepairs, TableExpenses}

// ParseTable resolves a table name case-insensitively.
func ParseTable(name string) (Table, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range Tables {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

// Export is a ready-to-send exchange file.
type Export struct {
	Filename string
	Data     []byte
	At       time.Time
}

// Service exports and imports the snapshot held by a ledger store.
type Service struct {
	store   *ledger.Store
	archive Archive
}

// Option configures a Service.
type Option func(*Service)

// WithArchive sets the off-site destination used by Archive.
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// NewService creates a backup service over store.
func NewService(store *ledger.Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportFull serializes the whole snapshot and records the export time as
// the last backup. Callers that still have to deliver the file use
// PrepareFull and MarkDelivered instead.
func (s *Service) ExportFull(ctx context.Context) (Export, error) {
	exp, err := s.PrepareFull(ctx)
	if err != nil {
		return Export{}, err
	}
	if err := s.MarkDelivered(ctx, exp); err != nil {
		return Export{}, err
	}
	return exp, nil
}

// PrepareFull serializes the whole snapshot without touching the last
// backup time.
func (s *Service) PrepareFull(ctx context.Context) (Export, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("failed to encode backup: %w", err)
	}

	now := s.store.Now()
	return Export{
		Filename: "Mido_Full_Backup_" + now.Format(time.DateOnly) + ".json",
		Data:     data,
		At:       now,
	}, nil
}

// MarkDelivered records exp as the last backup. Call it once the file has
// reached the operator or an archive.
func (s *Service) MarkDelivered(ctx context.Context, exp Export) error {
	return s.markBackup(ctx, exp.At)
}

// ExportTable serializes one collection as a bare JSON list. References to
// other collections are left as ids. Table exports do not count as backups.
func (s *Service) ExportTable(ctx context.Context, table Table) (Export, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var rows any
	switch table {
	case TableClients:
		rows = snap.Clients
	case TableDevices:
		rows = snap.Devices
	case TableRepairs:
		rows = snap.Repairs
	case TableExpenses:
		rows = snap.Expenses
	default:
		return Export{}, fmt.Errorf("%w: %q", ErrUnknownTable, string(table))
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("failed to encode %s: %w", table, err)
	}

	now := s.store.Now()
	return Export{
		Filename: fmt.Sprintf("Mido_%s_%s.json", strings.ToUpper(string(table)), now.Format(time.DateOnly)),
		Data:     data,
		At:       now,
	}, nil
}

// ImportFull replaces the snapshot wholesale with a full backup and resets
// the last backup time. A rejected payload leaves both untouched.
func (s *Service) ImportFull(ctx context.Context, data []byte) error {
	snap, err := ParseFull(data)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save imported snapshot: %w", err)
	}
	if err := s.markBackup(ctx, s.store.Now()); err != nil {
		return err
	}

	logger.Log.Info().
		Int("clients", len(snap.Clients)).
		Int("devices", len(snap.Devices)).
		Int("repairs", len(snap.Repairs)).
		Int("expenses", len(snap.Expenses)).
		Msg("Backup imported")
	return nil
}

// ParseFull validates and decodes a full backup without applying it.
// Records are not re-derived: totals and stamps are kept as exported. Past the
// top-level shape there is no validation: bad records are patched or skipped
// as in models.DecodeSnapshot.
func ParseFull(data []byte) (*models.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return nil, ErrBareList
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidBackup)
	}
	if !present(top, "clients") && !present(top, "devices") && !present(top, "repairs") {
		return nil, fmt.Errorf("%w: no clients, devices or repairs found", ErrInvalidBackup)
	}
	if clients := bytes.TrimSpace(top["clients"]); len(clients) == 0 || clients[0] != '[' {
		return nil, ErrIncompleteBackup
	}

	snap, issues, err := models.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	for _, issue := range issues {
		logger.Log.Warn().Str("record", issue.String()).Msg("Backup record recovered")
	}
	return snap, nil
}

func present(top map[string]json.RawMessage, key string) bool {
	raw, ok := top[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// LastBackup returns the time of the last full export or import.
// ok is false when no backup was ever recorded.
func (s *Service) LastBackup(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.store.Backend().Get(ctx, LastBackupKey)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read last backup time: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return t.UTC(), true, nil
	}
	// Older builds stored epoch milliseconds.
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true, nil
	}

	logger.Log.Warn().Str("key", LastBackupKey).Msg("Unreadable last backup time, treating as never")
	return time.Time{}, false, nil
}

// LastBackupAge reports how long ago the last backup happened.
// ok is false when no backup was ever recorded.
func (s *Service) LastBackupAge(ctx context.Context) (time.Duration, bool, error) {
	at, ok, err := s.LastBackup(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	age := s.store.Now().Sub(at)
	if age < 0 {
		age = 0
	}
	return age, true, nil
}

func (s *Service) markBackup(ctx context.Context, at time.Time) error {
	if err := s.store.Backend().Put(ctx, LastBackupKey, []byte(at.UTC().Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("failed to record backup time: %w", err)
	}
	return nil
}
