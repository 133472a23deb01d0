// Package report derives read-only views of the ledger: the dashboard
// summary, CSV and chart exports, and customer notices.
package report

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

// Summary is the dashboard view of a snapshot for one calendar month.
type Summary struct {
	Month        time.Time
	Clients      int
	Devices      int
	OpenRepairs  int
	StatusCounts map[models.RepairStatus]int
	// MonthIncome sums the totals of finished repairs entered this month.
	MonthIncome   decimal.Decimal
	MonthExpenses decimal.Decimal
	// Outstanding is the unpaid balance over all repairs that are not cancelled.
	Outstanding decimal.Decimal
}

// Net returns the month's income minus its expenses.
func (s Summary) Net() decimal.Decimal {
	return s.MonthIncome.Sub(s.MonthExpenses)
}

// Summarize computes the summary for the month containing now.
func Summarize(snap *models.Snapshot, now time.Time) Summary {
	start, end := monthRange(now)
	sum := Summary{
		Month:         start,
		Clients:       len(snap.Clients),
		Devices:       len(snap.Devices),
		StatusCounts:  make(map[models.RepairStatus]int, len(models.RepairStatuses)),
		MonthIncome:   decimal.Zero,
		MonthExpenses: decimal.Zero,
		Outstanding:   decimal.Zero,
	}

	for i := range snap.Repairs {
		r := &snap.Repairs[i]
		sum.StatusCounts[r.Status]++
		if r.Status.IsOpen() {
			sum.OpenRepairs++
		}
		if r.Status.IsTerminal() && inRange(r.EntryDate, start, end) {
			sum.MonthIncome = sum.MonthIncome.Add(r.TotalCost)
		}
		if r.Status != models.StatusCancelled {
			sum.Outstanding = sum.Outstanding.Add(r.BalanceDue())
		}
	}

	for _, e := range snap.Expenses {
		if inRange(e.Date, start, end) {
			sum.MonthExpenses = sum.MonthExpenses.Add(e.Amount)
		}
	}

	return sum
}

// DailyIncome returns the finished-repair income for each of the last days
// days ending with now's day, oldest first. Days are calendar dates in now's
// location, so a 23 or 25 hour day still counts as one.
func DailyIncome(snap *models.Snapshot, now time.Time, days int) []decimal.Decimal {
	out := make([]decimal.Decimal, days)
	index := make(map[civilDay]int, days)
	first := dayStart(now).AddDate(0, 0, -(days - 1))
	for i := range out {
		out[i] = decimal.Zero
		index[civilDate(first.AddDate(0, 0, i))] = i
	}
	for _, r := range snap.Repairs {
		if !r.Status.IsTerminal() {
			continue
		}
		if idx, ok := index[civilDate(r.EntryDate.In(now.Location()))]; ok {
			out[idx] = out[idx].Add(r.TotalCost)
		}
	}
	return out
}

type civilDay struct {
	year  int
	month time.Month
	day   int
}

func civilDate(t time.Time) civilDay {
	y, m, d := t.Date()
	return civilDay{year: y, month: m, day: d}
}

func monthRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
