package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// A patch carries the fields of an update. Nil fields are left unchanged.
// Slice fields follow the same rule: nil keeps the current list, an empty
// non-nil slice clears it. Identifiers and creation stamps have no patch
// field and cannot be changed after creation.

// ClientPatch holds a partial update for a Client.
type ClientPatch struct {
	Name    *string
	Phone   *string
	Address *string
	Notes   *string
}

// Apply merges the patch over c.
func (p ClientPatch) Apply(c *Client) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
}

// DevicePatch holds a partial update for a Device.
type DevicePatch struct {
	ClientID *string
	Brand    *string
	Model    *string
	IMEI     *string
	Passcode *string
	Color    *string
}

// Apply merges the patch over d.
func (p DevicePatch) Apply(d *Device) {
	if p.ClientID != nil {
		d.ClientID = *p.ClientID
	}
	if p.Brand != nil {
		d.Brand = *p.Brand
	}
	if p.Model != nil {
		d.Model = *p.Model
	}
	if p.IMEI != nil {
		d.IMEI = *p.IMEI
	}
	if p.Passcode != nil {
		d.Passcode = *p.Passcode
	}
	if p.Color != nil {
		d.Color = *p.Color
	}
}

// RepairPatch holds a partial update for a Repair. TotalCost, EntryDate and
// CompletionDate are derived and have no patch field.
type RepairPatch struct {
	DeviceID        *string
	Problem         *string
	Parts           []string
	Services        []string
	CostParts       *decimal.Decimal
	CostServices    *decimal.Decimal
	CostOther       *decimal.Decimal
	PaidAmount      *decimal.Decimal
	Status          *RepairStatus
	TechnicianNotes *string
}

// Apply merges the patch over r. Derived fields are not touched.
func (p RepairPatch) Apply(r *Repair) {
	if p.DeviceID != nil {
		r.DeviceID = *p.DeviceID
	}
	if p.Problem != nil {
		r.Problem = *p.Problem
	}
	if p.Parts != nil {
		r.Parts = slices.Clone(p.Parts)
	}
	if p.Services != nil {
		r.Services = slices.Clone(p.Services)
	}
	if p.CostParts != nil {
		r.CostParts = *p.CostParts
	}
	if p.CostServices != nil {
		r.CostServices = *p.CostServices
	}
	if p.CostOther != nil {
		r.CostOther = *p.CostOther
	}
	if p.PaidAmount != nil {
		r.PaidAmount = *p.PaidAmount
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.TechnicianNotes != nil {
		r.TechnicianNotes = *p.TechnicianNotes
	}
}

// ExpensePatch holds a partial update for an Expense.
type ExpensePatch struct {
	Title    *string
	Amount   *decimal.Decimal
	Category *ExpenseCategory
	Date     *time.Time
	Notes    *string
}

// Apply merges the patch over e.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}
