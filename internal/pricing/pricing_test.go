package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"pgregory.net/rapid"
)

func TestTotal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		parts, services, other string
		want                   string
	}{
		{"all components", "100", "50", "0", "150"},
		{"fractions", "10.25", "0.50", "1.25", "12"},
		{"negative component ignored", "100", "-20", "5", "105"},
		{"all zero", "0", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Total(
				decimal.RequireFromString(tt.parts),
				decimal.RequireFromString(tt.services),
				decimal.RequireFromString(tt.other),
			)
			require.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRecompute_OverwritesStaleTotal(t *testing.T) {
	t.Parallel()

	r := models.Repair{
		CostParts:    decimal.NewFromInt(100),
		CostServices: decimal.NewFromInt(50),
		TotalCost:    decimal.NewFromInt(9999),
		PaidAmount:   decimal.NewFromInt(-3),
	}
	Recompute(&r)

	require.True(t, decimal.NewFromInt(150).Equal(r.TotalCost))
	require.True(t, r.PaidAmount.IsZero())
}

func TestRecompute_TotalMatchesComponents(t *testing.T) {
	t.Parallel()

	amount := rapid.Custom(func(t *rapid.T) decimal.Decimal {
		cents := rapid.Int64Range(-1_000_000, 10_000_000).Draw(t, "cents")
		return decimal.New(cents, -2)
	})

	rapid.Check(t, func(t *rapid.T) {
		r := models.Repair{
			CostParts:    amount.Draw(t, "parts"),
			CostServices: amount.Draw(t, "services"),
			CostOther:    amount.Draw(t, "other"),
			TotalCost:    amount.Draw(t, "stale"),
		}
		Recompute(&r)

		sum := r.CostParts.Add(r.CostServices).Add(r.CostOther)
		if !sum.Equal(r.TotalCost) {
			t.Fatalf("total %s != %s", r.TotalCost, sum)
		}
		if r.TotalCost.IsNegative() {
			t.Fatalf("negative total %s", r.TotalCost)
		}
	})
}

func TestApplyStatus(t *testing.T) {
	t.Parallel()

	earlier := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		prev     models.RepairStatus
		next     models.RepairStatus
		existing *time.Time
		want     *time.Time
	}{
		{"pending to done stamps", models.StatusPending, models.StatusDone, nil, &now},
		{"in progress to delivered stamps", models.StatusInProgress, models.StatusDelivered, nil, &now},
		{"delivering to delivered stamps", models.StatusDelivering, models.StatusDelivered, nil, &now},
		{"done to delivered keeps first stamp", models.StatusDone, models.StatusDelivered, &earlier, &earlier},
		{"done to done keeps stamp", models.StatusDone, models.StatusDone, &earlier, &earlier},
		{"done to pending clears", models.StatusDone, models.StatusPending, &earlier, nil},
		{"delivered to cancelled clears", models.StatusDelivered, models.StatusCancelled, &earlier, nil},
		{"pending to in progress leaves unset", models.StatusPending, models.StatusInProgress, nil, nil},
		{"within terminal set without stamp stays unset", models.StatusDone, models.StatusDelivered, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := models.Repair{Status: tt.next, CompletionDate: tt.existing}
			ApplyStatus(&r, tt.prev, now)
			if tt.want == nil {
				require.Nil(t, r.CompletionDate)
				return
			}
			require.NotNil(t, r.CompletionDate)
			require.Equal(t, *tt.want, *r.CompletionDate)
		})
	}
}

func TestApplyStatus_ReentryRestamps(t *testing.T) {
	t.Parallel()

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	r := models.Repair{Status: models.StatusDone}
	ApplyStatus(&r, models.StatusPending, first)
	require.Equal(t, first, *r.CompletionDate)

	r.Status = models.StatusPending
	ApplyStatus(&r, models.StatusDone, first.Add(time.Hour))
	require.Nil(t, r.CompletionDate)

	r.Status = models.StatusDone
	ApplyStatus(&r, models.StatusPending, second)
	require.Equal(t, second, *r.CompletionDate)
}
