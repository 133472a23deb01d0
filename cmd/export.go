package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/yelinaung/repair-ledger/internal/backup"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export [clients|devices|repairs|expenses]",
	Short: "Write a full backup or a single table",
	Long: `Without arguments, write a full backup and record it as the last backup.
With a table name, write that collection alone as a JSON list. Table exports
cannot be restored and do not count as backups.

Examples:
  repair-ledger export --dir ./backups
  repair-ledger export repairs --csv
  repair-ledger export --archive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var (
	exportDir     string
	exportStdout  bool
	exportCSV     bool
	exportArchive bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "Directory to write the file into")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write to stdout instead of a file")
	exportCmd.Flags().BoolVar(&exportCSV, "csv", false, "Write repairs or expenses as CSV")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "Also push the full backup to the configured archive")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	table := ""
	if len(args) == 1 {
		table = args[0]
	}

	f, err := exportData(ctx, a, table, exportCSV, exportArchive)
	if err != nil {
		return err
	}

	if exportStdout {
		if _, err := cmd.OutOrStdout().Write(f.data); err != nil {
			return err
		}
	} else {
		path, err := writeExport(exportDir, f.name, f.data)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", path, len(f.data))
	}
	if f.location != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Archived to %s\n", f.location)
	}
	return f.delivered(ctx, a)
}

// exportFile is one file ready to be written out.
type exportFile struct {
	name     string
	data     []byte
	location string
	// pending is set for a full backup whose time is recorded only after
	// the file was written.
	pending *backup.Export
}

func (f exportFile) delivered(ctx context.Context, a *app) error {
	if f.pending == nil {
		return nil
	}
	return a.backups.MarkDelivered(ctx, *f.pending)
}

// exportData produces the file named by table. An empty table means a full
// backup, which is archived when archive is set.
func exportData(ctx context.Context, a *app, table string, asCSV, archive bool) (exportFile, error) {
	if table == "" {
		if asCSV {
			return exportFile{}, fmt.Errorf("--csv needs a table: repairs or expenses")
		}
		if archive {
			exp, location, err := a.backups.Archive(ctx)
			if err != nil {
				return exportFile{}, err
			}
			return exportFile{name: exp.Filename, data: exp.Data, location: location}, nil
		}
		exp, err := a.backups.PrepareFull(ctx)
		if err != nil {
			return exportFile{}, err
		}
		return exportFile{name: exp.Filename, data: exp.Data, pending: &exp}, nil
	}

	t, err := backup.ParseTable(table)
	if err != nil {
		return exportFile{}, err
	}

	if !asCSV {
		exp, err := a.backups.ExportTable(ctx, t)
		if err != nil {
			return exportFile{}, err
		}
		return exportFile{name: exp.Filename, data: exp.Data}, nil
	}

	snap, err := a.store.Load(ctx)
	if err != nil {
		return exportFile{}, err
	}
	var data []byte
	switch t {
	case backup.TableRepairs:
		data, err = report.RepairsCSV(snap)
	case backup.TableExpenses:
		data, err = report.ExpensesCSV(snap.Expenses)
	default:
		return exportFile{}, fmt.Errorf("csv export supports repairs and expenses, not %s", t)
	}
	if err != nil {
		return exportFile{}, err
	}
	return exportFile{name: report.CSVFilename(string(t), a.store.Now()), data: data}, nil
}

func writeExport(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func readInput(in io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}
