package storage

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverBolt     = "bolt"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverBolt, "":
		return NewBolt(opts.Path)
	case DriverSQLite:
		return NewSQLite(ctx, opts.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
