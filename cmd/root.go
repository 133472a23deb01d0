// Package cmd implements the repair-ledger command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/yelinaung/repair-ledger/internal/backup"
	"gitlab.com/yelinaung/repair-ledger/internal/config"
	"gitlab.com/yelinaung/repair-ledger/internal/ledger"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	"gitlab.com/yelinaung/repair-ledger/internal/storage"
)

// AppName is the binary name shown in help and version output.
const AppName = "repair-ledger"

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Phone repair shop ledger",
	Long: `repair-ledger keeps the books of a small phone repair shop: clients, their
devices, repair orders and shop expenses. Run "serve" to start the Telegram bot,
or use the other commands to back up, restore and inspect the ledger.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// app bundles what every command needs once config is loaded.
type app struct {
	cfg     *config.Config
	backend storage.Backend
	store   *ledger.Store
	backups *backup.Service
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to close store")
	}
}

// openApp loads configuration and opens the configured snapshot backend.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	backend, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.StoreDriver,
		Path:        cfg.StorePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	store := ledger.New(backend)

	var opts []backup.Option
	if cfg.ArchiveEnabled() {
		archive, err := archiveFromConfig(ctx, cfg.Backup)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		opts = append(opts, backup.WithArchive(archive))
	}

	logger.Log.Debug().
		Str("driver", cfg.StoreDriver).
		Bool("archive", cfg.ArchiveEnabled()).
		Msg("Ledger opened")

	return &app{
		cfg:     cfg,
		backend: backend,
		store:   store,
		backups: backup.NewService(store, opts...),
	}, nil
}

// archiveFromConfig picks S3 when a bucket is set, else a local directory,
// else no archive at all.
func archiveFromConfig(ctx context.Context, bc config.BackupConfig) (backup.Archive, error) {
	switch {
	case bc.S3Bucket != "":
		a, err := backup.NewS3Archive(ctx, backup.S3Config{
			Bucket:    bc.S3Bucket,
			Region:    bc.S3Region,
			Endpoint:  bc.S3Endpoint,
			PathStyle: bc.S3PathStyle,
			Prefix:    bc.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up s3 archive: %w", err)
		}
		return a, nil
	case bc.Dir != "":
		return backup.DirArchive{Dir: bc.Dir}, nil
	}
	return nil, nil
}
