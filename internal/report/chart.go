package report

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

// ErrNoChartData is returned when there is nothing to plot.
var ErrNoChartData = errors.New("no data to chart")

// ExpenseChart renders a pie chart of expenses by category as PNG bytes.
func ExpenseChart(expenses []models.Expense, title string) ([]byte, error) {
	totals := make(map[models.ExpenseCategory]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}

	var (
		values []float64
		names  []string
	)
	for _, c := range models.ExpenseCategories {
		total, ok := totals[c]
		if !ok || !total.IsPositive() {
			continue
		}
		values = append(values, total.InexactFloat64())
		names = append(names, c.String())
	}

	return renderPie(values, names, title)
}

// StatusChart renders a pie chart of repair counts by status as PNG bytes.
func StatusChart(repairs []models.Repair, title string) ([]byte, error) {
	counts := make(map[models.RepairStatus]int)
	for _, r := range repairs {
		counts[r.Status]++
	}

	var (
		values []float64
		names  []string
	)
	for _, s := range models.RepairStatuses {
		if counts[s] == 0 {
			continue
		}
		values = append(values, float64(counts[s]))
		names = append(names, s.String())
	}

	return renderPie(values, names, title)
}

func renderPie(values []float64, names []string, title string) ([]byte, error) {
	if len(values) == 0 {
		return nil, ErrNoChartData
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: title,
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}
