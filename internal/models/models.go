// Package models defines the domain entities for the repair shop ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Backups are exchanged with tools that expect plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

// Client represents a customer of the shop.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Device represents a phone brought in by a client.
type Device struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	IMEI      string    `json:"imei,omitempty"`
	Passcode  string    `json:"passcode,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repair represents a repair order against a device.
//
// ClientID is a copy of the device owner taken when the repair is created or
// moved to another device. It is not refreshed when the device changes owner.
type Repair struct {
	ID              string          `json:"id"`
	DeviceID        string          `json:"deviceId"`
	ClientID        string          `json:"clientId"`
	Problem         string          `json:"problem"`
	Parts           []string        `json:"parts"`
	Services        []string        `json:"services"`
	CostParts       decimal.Decimal `json:"costParts"`
	CostServices    decimal.Decimal `json:"costServices"`
	CostOther       decimal.Decimal `json:"costOther"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	Status          RepairStatus    `json:"status"`
	TechnicianNotes string          `json:"technicianNotes,omitempty"`
	EntryDate       time.Time       `json:"entryDate"`
	CompletionDate  *time.Time      `json:"completionDate,omitempty"`
}

// BalanceDue returns the unpaid part of the total cost. It never goes below zero.
func (r *Repair) BalanceDue() decimal.Decimal {
	due := r.TotalCost.Sub(r.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Expense represents an incidental business expense.
type Expense struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category ExpenseCategory `json:"category"`
	Date     time.Time       `json:"date"`
	Notes    string          `json:"notes,omitempty"`
}

// CatalogEntry lists the known models of one phone brand.
type CatalogEntry struct {
	Brand  string   `json:"brand"`
	Models []string `json:"models"`
}

// Snapshot is the unit of persistence and backup. Every mutation rewrites it whole.
type Snapshot struct {
	Clients  []Client       `json:"clients"`
	Devices  []Device       `json:"devices"`
	Repairs  []Repair       `json:"repairs"`
	Expenses []Expense      `json:"expenses"`
	Catalog  []CatalogEntry `json:"catalog"`
}

// Normalize replaces nil collections with empty ones so that the snapshot
// always serialises lists rather than nulls. Catalog is left alone: a nil
// catalog means the field was never written and is seeded by the store.
func (s *Snapshot) Normalize() {
	if s.Clients == nil {
		s.Clients = []Client{}
	}
	if s.Devices == nil {
		s.Devices = []Device{}
	}
	if s.Repairs == nil {
		s.Repairs = []Repair{}
	}
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
	for i := range s.Repairs {
		if s.Repairs[i].Parts == nil {
			s.Repairs[i].Parts = []string{}
		}
		if s.Repairs[i].Services == nil {
			s.Repairs[i].Services = []string{}
		}
	}
	for i := range s.Catalog {
		if s.Catalog[i].Models == nil {
			s.Catalog[i].Models = []string{}
		}
	}
}

// ClientByID looks up a client. ok is false for unknown or dangling ids.
func (s *Snapshot) ClientByID(id string) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// DeviceByID looks up a device. ok is false for unknown or dangling ids.
func (s *Snapshot) DeviceByID(id string) (Device, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// RepairByID looks up a repair.
func (s *Snapshot) RepairByID(id string) (Repair, bool) {
	for _, r := range s.Repairs {
		if r.ID == id {
			return r, true
		}
	}
	return Repair{}, false
}

// ExpenseByID looks up an expense.
func (s *Snapshot) ExpenseByID(id string) (Expense, bool) {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

// OwnerOf resolves the client that owns a repair through its device.
// ok is false when either hop is dangling ("unknown owner").
func (s *Snapshot) OwnerOf(r Repair) (Client, Device, bool) {
	device, ok := s.DeviceByID(r.DeviceID)
	if !ok {
		return Client{}, Device{}, false
	}
	client, ok := s.ClientByID(device.ClientID)
	if !ok {
		return Client{}, device, false
	}
	return client, device, true
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
