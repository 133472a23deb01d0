package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print this month's dashboard",
	RunE:  runSummary,
}

var summaryDays int

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().IntVar(&summaryDays, "days", 7, "Number of days of daily income to show")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	now := a.store.Now()

	age, backedUp, err := a.backups.LastBackupAge(ctx)
	if err != nil {
		return err
	}

	writeSummary(cmd.OutOrStdout(), snap, now, summaryDays)
	switch {
	case !backedUp:
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\nLast backup: never")
	default:
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nLast backup: %s ago\n", age.Round(time.Minute))
	}
	return nil
}

func writeSummary(w io.Writer, snap *models.Snapshot, now time.Time, days int) {
	sum := report.Summarize(snap, now)

	_, _ = fmt.Fprintf(w, "%s\n\n", sum.Month.Format("January 2006"))
	_, _ = fmt.Fprintf(w, "Clients:      %d\n", sum.Clients)
	_, _ = fmt.Fprintf(w, "Devices:      %d\n", sum.Devices)
	_, _ = fmt.Fprintf(w, "Open repairs: %d\n\n", sum.OpenRepairs)
	_, _ = fmt.Fprintf(w, "Income:       %s\n", sum.MonthIncome.StringFixed(2))
	_, _ = fmt.Fprintf(w, "Expenses:     %s\n", sum.MonthExpenses.StringFixed(2))
	_, _ = fmt.Fprintf(w, "Net:          %s\n", sum.Net().StringFixed(2))
	_, _ = fmt.Fprintf(w, "Outstanding:  %s\n", sum.Outstanding.StringFixed(2))

	if days <= 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "\nDaily income:")
	first := now.AddDate(0, 0, -(days - 1))
	for i, amount := range report.DailyIncome(snap, now, days) {
		_, _ = fmt.Fprintf(w, "  %s  %s\n", first.AddDate(0, 0, i).Format(time.DateOnly), amount.StringFixed(2))
	}
}
