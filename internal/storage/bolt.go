package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucketLedger = "ledger"

// Bolt stores payloads in a single bbolt bucket. It is the default backend.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (or creates) the bbolt file at path.
func NewBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketLedger))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucketLedger)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		out = slices.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketLedger)).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close closes the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}
