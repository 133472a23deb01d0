// Package integrity keeps a snapshot free of dangling references after deletes.
//
// The ownership chain is fixed at two hops (client -> device -> repair), so
// cascades are explicit ordered filter passes rather than graph walks.
// References are never validated on create.
package integrity

import (
	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

// Removed reports how many records a cascade dropped from each collection.
type Removed struct {
	Clients int
	Devices int
	Repairs int
}

// Total returns the number of removed records.
func (r Removed) Total() int {
	return r.Clients + r.Devices + r.Repairs
}

// DeleteClient removes the client, every device it owns, and every repair
// against those devices.
func DeleteClient(s *models.Snapshot, clientID string) Removed {
	owned := make(map[string]struct{})
	for _, d := range s.Devices {
		if d.ClientID == clientID {
			owned[d.ID] = struct{}{}
		}
	}

	var removed Removed
	s.Devices, removed.Devices = filter(s.Devices, func(d models.Device) bool {
		_, hit := owned[d.ID]
		return hit
	})
	s.Repairs, removed.Repairs = filter(s.Repairs, func(r models.Repair) bool {
		_, hit := owned[r.DeviceID]
		return hit
	})
	s.Clients, removed.Clients = filter(s.Clients, func(c models.Client) bool {
		return c.ID == clientID
	})
	return removed
}

// DeleteDevice removes the device and every repair against it. The owning
// client and its other devices are untouched.
func DeleteDevice(s *models.Snapshot, deviceID string) Removed {
	var removed Removed
	s.Repairs, removed.Repairs = filter(s.Repairs, func(r models.Repair) bool {
		return r.DeviceID == deviceID
	})
	s.Devices, removed.Devices = filter(s.Devices, func(d models.Device) bool {
		return d.ID == deviceID
	})
	return removed
}

// filter returns items without those matching drop, and the number dropped.
// The result never aliases the input so callers holding the old slice are safe.
func filter[T any](items []T, drop func(T) bool) ([]T, int) {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if !drop(item) {
			kept = append(kept, item)
		}
	}
	return kept, len(items) - len(kept)
}
