// Package ledger owns the canonical snapshot of shop records. Every mutation
// loads the whole snapshot, changes it in memory and writes it back.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/yelinaung/repair-ledger/internal/catalog"
	"gitlab.com/yelinaung/repair-ledger/internal/idgen"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/storage"
)

const (
	// SnapshotKey is the backend key the snapshot is stored under.
	SnapshotKey = "mido_repair_shop_v1"
	// QuarantineKey keeps the last payload that Load could not read in full.
	QuarantineKey = SnapshotKey + ".corrupt"
)

// Store is the entity store. It is safe for concurrent use within one
// process. Two processes sharing a backend overwrite each other's snapshot
// (last writer wins).
type Store struct {
	backend storage.Backend
	ids     *idgen.Generator
	now     func() time.Time

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for creation and completion stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(g *idgen.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// New creates a Store persisting to backend.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		ids:     idgen.New(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the persistence medium, for collaborators that keep side
// records next to the snapshot.
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// Load returns the current snapshot. Absent data, or data that is not a JSON
// object, is replaced with a fresh snapshot holding the default catalog,
// which is persisted. Individual bad records are patched or skipped (see
// models.DecodeSnapshot) and the original payload is kept under QuarantineKey.
// A snapshot that was saved without a catalog gets the default one.
func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save replaces the persisted snapshot wholesale.
func (s *Store) Save(ctx context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, snap)
}

func (s *Store) load(ctx context.Context) (*models.Snapshot, error) {
	data, err := s.backend.Get(ctx, SnapshotKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Log.Info().Str("key", SnapshotKey).Msg("No snapshot found, starting fresh ledger")
		return s.reset(ctx)
	case err != nil:
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap, issues, err := models.DecodeSnapshot(data)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("key", SnapshotKey).
			Int("discarded_bytes", len(data)).
			Msg("Snapshot unreadable, replacing with fresh ledger")
		s.quarantine(ctx, data)
		return s.reset(ctx)
	}
	if len(issues) > 0 {
		for _, issue := range issues {
			logger.Log.Warn().
				Str("key", SnapshotKey).
				Str("record", issue.String()).
				Msg("Snapshot record recovered")
		}
		// The next save drops what could not be read, so keep the original.
		s.quarantine(ctx, data)
	}

	if snap.Catalog == nil {
		snap.Catalog = catalog.Default()
	}
	return snap, nil
}

func (s *Store) quarantine(ctx context.Context, data []byte) {
	if err := s.backend.Put(ctx, QuarantineKey, data); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to quarantine unreadable snapshot")
	}
}

func (s *Store) reset(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{Catalog: catalog.Default()}
	snap.Normalize()
	if err := s.save(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) save(ctx context.Context, snap *models.Snapshot) error {
	snap.Normalize()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.backend.Put(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// mutate runs fn against the current snapshot and persists the result when
// fn reports a change. The whole cycle holds the store lock.
func (s *Store) mutate(ctx context.Context, fn func(*models.Snapshot) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	if !fn(snap) {
		return nil
	}
	return s.save(ctx, snap)
}
