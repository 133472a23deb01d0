package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// RepairsCSV renders every repair with its resolved owner and device.
// Dangling references show as "Unknown".
func RepairsCSV(snap *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"ID", "Entry Date", "Client", "Phone", "Device", "Problem", "Status",
		"Parts", "Services", "Cost Parts", "Cost Services", "Cost Other",
		"Total", "Paid", "Balance", "Completion Date",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range snap.Repairs {
		r := &snap.Repairs[i]
		clientName, phone, device := "Unknown", "", "Unknown"
		client, dev, ok := snap.OwnerOf(*r)
		if dev.ID != "" {
			device = strings.TrimSpace(dev.Brand + " " + dev.Model)
		}
		if ok {
			clientName, phone = client.Name, client.Phone
		}

		completed := ""
		if r.CompletionDate != nil {
			completed = r.CompletionDate.Format(csvTimeLayout)
		}

		row := []string{
			r.ID,
			r.EntryDate.Format(csvTimeLayout),
			clientName,
			phone,
			device,
			r.Problem,
			r.Status.String(),
			strings.Join(r.Parts, "; "),
			strings.Join(r.Services, "; "),
			r.CostParts.StringFixed(2),
			r.CostServices.StringFixed(2),
			r.CostOther.StringFixed(2),
			r.TotalCost.StringFixed(2),
			r.PaidAmount.StringFixed(2),
			r.BalanceDue().StringFixed(2),
			completed,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExpensesCSV renders the expenses table.
func ExpensesCSV(expenses []models.Expense) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Date", "Title", "Category", "Amount", "Notes"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range expenses {
		row := []string{
			e.ID,
			e.Date.Format(time.DateOnly),
			e.Title,
			e.Category.String(),
			e.Amount.StringFixed(2),
			e.Notes,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CSVFilename names a CSV report for table on the given day.
func CSVFilename(table string, at time.Time) string {
	return fmt.Sprintf("Mido_%s_%s.csv", strings.ToUpper(table), at.Format(time.DateOnly))
}
