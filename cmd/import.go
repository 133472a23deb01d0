package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/yelinaung/repair-ledger/internal/backup"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Restore a full backup",
	Long: `Replace the whole ledger with a full backup file. The file must hold at
least a clients list; single-table exports are refused. Nothing is changed
when the file is rejected.

Examples:
  repair-ledger import Mido_Full_Backup_2025-06-01.json
  repair-ledger import --dry-run backup.json
  cat backup.json | repair-ledger import -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var importDryRun bool

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file and print its counts without restoring")
}

func runImport(cmd *cobra.Command, args []string) error {
	file := ""
	if len(args) == 1 {
		file = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	snap, err := backup.ParseFull(data)
	if err != nil {
		return err
	}
	counts := fmt.Sprintf("%d clients, %d devices, %d repairs, %d expenses",
		len(snap.Clients), len(snap.Devices), len(snap.Repairs), len(snap.Expenses))

	if importDryRun {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backup is valid: %s\n", counts)
		return nil
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.backups.ImportFull(ctx, data); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", counts)
	return nil
}
