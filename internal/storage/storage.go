// Package storage provides the key/value media the ledger snapshot is
// persisted to. Each backend stores opaque byte payloads under string keys
// and replaces a key's payload atomically.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("key not found")

// Backend is a persistence medium for whole snapshots.
type Backend interface {
	// Get returns the payload stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the payload stored under key.
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
