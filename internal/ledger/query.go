package ledger

import (
	"slices"
	"strings"
	"time"

	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

// RepairFilter narrows a repair listing. Zero fields do not filter.
type RepairFilter struct {
	// Query matches a substring of the problem text or the repair id.
	Query  string
	Status *models.RepairStatus
	// From and To bound the entry date by calendar day. To includes the whole day.
	From time.Time
	To   time.Time
}

// FilterRepairs returns the repairs matching f, newest entry first.
func FilterRepairs(repairs []models.Repair, f RepairFilter) []models.Repair {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	var from, until time.Time
	if !f.From.IsZero() {
		from = startOfDay(f.From)
	}
	if !f.To.IsZero() {
		until = startOfDay(f.To).AddDate(0, 0, 1)
	}

	out := make([]models.Repair, 0, len(repairs))
	for _, r := range repairs {
		if query != "" &&
			!strings.Contains(strings.ToLower(r.Problem), query) &&
			!strings.Contains(strings.ToLower(r.ID), query) {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if !from.IsZero() && r.EntryDate.Before(from) {
			continue
		}
		if !until.IsZero() && !r.EntryDate.Before(until) {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b models.Repair) int {
		return b.EntryDate.Compare(a.EntryDate)
	})
	return out
}

// SearchClients returns clients whose name or phone contains query, newest first.
func SearchClients(clients []models.Client, query string) []models.Client {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Client, 0, len(clients))
	for _, c := range clients {
		if query == "" ||
			strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(c.Phone, query) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Client) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// DevicesOf returns the devices owned by clientID.
func DevicesOf(snap *models.Snapshot, clientID string) []models.Device {
	var out []models.Device
	for _, d := range snap.Devices {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out
}

// RepairsOf returns the repairs against deviceID, newest first.
func RepairsOf(snap *models.Snapshot, deviceID string) []models.Repair {
	var out []models.Repair
	for _, r := range snap.Repairs {
		if r.DeviceID == deviceID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Repair) int {
		return b.EntryDate.Compare(a.EntryDate)
	})
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
