package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set from main.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit: %s, built: %s)\n", AppName, Version, Commit, Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
