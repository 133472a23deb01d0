// Package pricing keeps derived repair fields consistent with their inputs.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

// Total sums the cost components of a repair. Negative components count as zero.
func Total(parts, services, other decimal.Decimal) decimal.Decimal {
	return nonNegative(parts).Add(nonNegative(services)).Add(nonNegative(other))
}

// Recompute clamps the cost components and rewrites TotalCost from them.
// It must run after every create or update of a repair.
func Recompute(r *models.Repair) {
	r.CostParts = nonNegative(r.CostParts)
	r.CostServices = nonNegative(r.CostServices)
	r.CostOther = nonNegative(r.CostOther)
	r.PaidAmount = nonNegative(r.PaidAmount)
	r.TotalCost = Total(r.CostParts, r.CostServices, r.CostOther)
}

// ApplyStatus updates CompletionDate for a status change from prev to r.Status.
//
// Entering DONE or DELIVERED from any other status stamps now. Moving between
// DONE and DELIVERED keeps the first stamp. Leaving the terminal set clears
// the stamp so that the next entry records a fresh completion.
func ApplyStatus(r *models.Repair, prev models.RepairStatus, now time.Time) {
	switch {
	case r.Status.IsTerminal() && !prev.IsTerminal():
		stamp := now
		r.CompletionDate = &stamp
	case !r.Status.IsTerminal() && prev.IsTerminal():
		r.CompletionDate = nil
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
