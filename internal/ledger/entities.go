package ledger

import (
	"context"
	"slices"

	"gitlab.com/yelinaung/repair-ledger/internal/catalog"
	"gitlab.com/yelinaung/repair-ledger/internal/integrity"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/pricing"
)

// Add* operations assign a fresh id and creation stamp, ignoring any the
// caller set. Update* operations on an unknown id are no-ops and report
// ok=false without error. Delete* operations likewise.

func (s *Store) newID(taken func(string) bool) string {
	return s.ids.NextUnique(taken)
}

// AddClient stores a new client.
func (s *Store) AddClient(ctx context.Context, c models.Client) (models.Client, error) {
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		c.ID = s.newID(func(id string) bool {
			_, ok := snap.ClientByID(id)
			return ok
		})
		c.CreatedAt = s.now()
		snap.Clients = append(snap.Clients, c)
		return true
	})
	if err != nil {
		return models.Client{}, err
	}
	return c, nil
}

// UpdateClient merges patch into the client with the given id.
func (s *Store) UpdateClient(ctx context.Context, id string, patch models.ClientPatch) (models.Client, bool, error) {
	var (
		out   models.Client
		found bool
	)
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		i := slices.IndexFunc(snap.Clients, func(c models.Client) bool { return c.ID == id })
		if i < 0 {
			return false
		}
		patch.Apply(&snap.Clients[i])
		out, found = snap.Clients[i], true
		return true
	})
	return out, found, err
}

// DeleteClient removes the client with its devices and their repairs.
func (s *Store) DeleteClient(ctx context.Context, id string) (integrity.Removed, error) {
	var removed integrity.Removed
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		removed = integrity.DeleteClient(snap, id)
		return removed.Total() > 0
	})
	return removed, err
}

// AddDevice stores a new device. The owning client is not checked.
func (s *Store) AddDevice(ctx context.Context, d models.Device) (models.Device, error) {
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		d.ID = s.newID(func(id string) bool {
			_, ok := snap.DeviceByID(id)
			return ok
		})
		d.CreatedAt = s.now()
		snap.Devices = append(snap.Devices, d)
		return true
	})
	if err != nil {
		return models.Device{}, err
	}
	return d, nil
}

// UpdateDevice merges patch into the device with the given id. Moving a
// device to another client does not touch the clientId copies on its repairs.
func (s *Store) UpdateDevice(ctx context.Context, id string, patch models.DevicePatch) (models.Device, bool, error) {
	var (
		out   models.Device
		found bool
	)
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		i := slices.IndexFunc(snap.Devices, func(d models.Device) bool { return d.ID == id })
		if i < 0 {
			return false
		}
		patch.Apply(&snap.Devices[i])
		out, found = snap.Devices[i], true
		return true
	})
	return out, found, err
}

// DeleteDevice removes the device and its repairs.
func (s *Store) DeleteDevice(ctx context.Context, id string) (integrity.Removed, error) {
	var removed integrity.Removed
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		removed = integrity.DeleteDevice(snap, id)
		return removed.Total() > 0
	})
	return removed, err
}

// AddRepair stores a new repair order. The entry date is stamped now, the
// total is derived from the cost components and the client is copied from
// the device when the device is known. Completion is never stamped on
// create, even for a repair entered as already done.
func (s *Store) AddRepair(ctx context.Context, r models.Repair) (models.Repair, error) {
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		r.ID = s.newID(func(id string) bool {
			_, ok := snap.RepairByID(id)
			return ok
		})
		r.EntryDate = s.now()
		r.CompletionDate = nil
		r.Parts = cloneList(r.Parts)
		r.Services = cloneList(r.Services)
		if d, ok := snap.DeviceByID(r.DeviceID); ok {
			r.ClientID = d.ClientID
		}
		pricing.Recompute(&r)
		snap.Repairs = append(snap.Repairs, r)
		return true
	})
	if err != nil {
		return models.Repair{}, err
	}
	return r, nil
}

// UpdateRepair merges patch into the repair with the given id, then
// re-derives the total and the completion date.
func (s *Store) UpdateRepair(ctx context.Context, id string, patch models.RepairPatch) (models.Repair, bool, error) {
	var (
		out   models.Repair
		found bool
	)
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		i := slices.IndexFunc(snap.Repairs, func(r models.Repair) bool { return r.ID == id })
		if i < 0 {
			return false
		}
		r := &snap.Repairs[i]
		prevStatus, prevDevice := r.Status, r.DeviceID

		patch.Apply(r)
		if r.DeviceID != prevDevice {
			if d, ok := snap.DeviceByID(r.DeviceID); ok {
				r.ClientID = d.ClientID
			}
		}
		pricing.Recompute(r)
		pricing.ApplyStatus(r, prevStatus, s.now())

		out, found = *r, true
		return true
	})
	return out, found, err
}

// DeleteRepair removes a single repair.
func (s *Store) DeleteRepair(ctx context.Context, id string) (bool, error) {
	var found bool
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		before := len(snap.Repairs)
		snap.Repairs = slices.DeleteFunc(snap.Repairs, func(r models.Repair) bool { return r.ID == id })
		found = len(snap.Repairs) != before
		return found
	})
	return found, err
}

// AddExpense stores a new expense. A zero date defaults to now.
func (s *Store) AddExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		e.ID = s.newID(func(id string) bool {
			_, ok := snap.ExpenseByID(id)
			return ok
		})
		if e.Date.IsZero() {
			e.Date = s.now()
		}
		snap.Expenses = append(snap.Expenses, e)
		return true
	})
	if err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

// UpdateExpense merges patch into the expense with the given id.
func (s *Store) UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (models.Expense, bool, error) {
	var (
		out   models.Expense
		found bool
	)
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		i := slices.IndexFunc(snap.Expenses, func(e models.Expense) bool { return e.ID == id })
		if i < 0 {
			return false
		}
		patch.Apply(&snap.Expenses[i])
		out, found = snap.Expenses[i], true
		return true
	})
	return out, found, err
}

// DeleteExpense removes a single expense.
func (s *Store) DeleteExpense(ctx context.Context, id string) (bool, error) {
	var found bool
	err := s.mutate(ctx, func(snap *models.Snapshot) bool {
		before := len(snap.Expenses)
		snap.Expenses = slices.DeleteFunc(snap.Expenses, func(e models.Expense) bool { return e.ID == id })
		found = len(snap.Expenses) != before
		return found
	})
	return found, err
}

// ReplaceCatalog swaps the catalog wholesale. Entries are stored as given,
// without merging or deduplication.
func (s *Store) ReplaceCatalog(ctx context.Context, entries []models.CatalogEntry) error {
	return s.mutate(ctx, func(snap *models.Snapshot) bool {
		snap.Catalog = catalog.Clone(entries)
		if snap.Catalog == nil {
			snap.Catalog = []models.CatalogEntry{}
		}
		return true
	})
}

// Catalog returns the current catalog, or the built-in seed when none was saved.
func (s *Store) Catalog(ctx context.Context) ([]models.CatalogEntry, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Catalog, nil
}

func cloneList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return slices.Clone(v)
}
