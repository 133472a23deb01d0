package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus indicates a status value outside the closed RepairStatus set.
var ErrUnknownStatus = errors.New("unknown repair status")

// ErrUnknownCategory indicates a value outside the closed ExpenseCategory set.
var ErrUnknownCategory = errors.New("unknown expense category")

// RepairStatus is the lifecycle state of a repair order.
type RepairStatus uint8

// Repair statuses. The zero value is StatusPending.
const (
	StatusPending RepairStatus = iota
	StatusInProgress
	StatusDone
	StatusDelivering
	StatusDelivered
	StatusCancelled
)

// RepairStatuses lists every status in display order.
var RepairStatuses = []RepairStatus{
	StatusPending,
	StatusInProgress,
	StatusDone,
	StatusDelivering,
	StatusDelivered,
	StatusCancelled,
}

// String returns the wire code of the status.
func (s RepairStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusDone:
		return "DONE"
	case StatusDelivering:
		return "DELIVERING"
	case StatusDelivered:
		return "DELIVERED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return fmt.Sprintf("RepairStatus(%d)", uint8(s))
}

// Label returns the shop-facing Arabic label. Older backups stored statuses this way.
func (s RepairStatus) Label() string {
	switch s {
	case StatusPending:
		return "قيد الانتظار"
	case StatusInProgress:
		return "جاري العمل"
	case StatusDone:
		return "تم الإصلاح"
	case StatusDelivering:
		return "جاري التسليم"
	case StatusDelivered:
		return "تم التسليم"
	case StatusCancelled:
		return "ملغي"
	}
	return s.String()
}

// Valid reports whether s is one of the declared statuses.
func (s RepairStatus) Valid() bool {
	return s <= StatusCancelled
}

// IsTerminal reports whether work on the repair is considered finished.
func (s RepairStatus) IsTerminal() bool {
	switch s {
	case StatusDone, StatusDelivered:
		return true
	case StatusPending, StatusInProgress, StatusDelivering, StatusCancelled:
		return false
	}
	return false
}

// IsOpen reports whether the repair is still waiting on the bench.
func (s RepairStatus) IsOpen() bool {
	switch s {
	case StatusPending, StatusInProgress:
		return true
	case StatusDone, StatusDelivering, StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// ParseRepairStatus accepts a wire code (case-insensitive) or a legacy label.
func ParseRepairStatus(v string) (RepairStatus, error) {
	v = strings.TrimSpace(v)
	for _, s := range RepairStatuses {
		if strings.EqualFold(v, s.String()) || v == s.Label() {
			return s, nil
		}
	}
	return StatusPending, fmt.Errorf("%w: %q", ErrUnknownStatus, v)
}

// MarshalText implements encoding.TextMarshaler.
func (s RepairStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RepairStatus) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = StatusPending
		return nil
	}
	parsed, err := ParseRepairStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ExpenseCategory classifies a business expense.
type ExpenseCategory uint8

// Expense categories. The zero value is CategoryOther.
const (
	CategoryOther ExpenseCategory = iota
	CategoryRent
	CategoryUtilities
	CategorySalary
	CategoryParts
)

// ExpenseCategories lists every category in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryRent,
	CategoryUtilities,
	CategorySalary,
	CategoryParts,
	CategoryOther,
}

func (c ExpenseCategory) String() string {
	switch c {
	case CategoryRent:
		return "RENT"
	case CategoryUtilities:
		return "UTILITIES"
	case CategorySalary:
		return "SALARY"
	case CategoryParts:
		return "PARTS"
	case CategoryOther:
		return "OTHER"
	}
	return fmt.Sprintf("ExpenseCategory(%d)", uint8(c))
}

// Valid reports whether c is one of the declared categories.
func (c ExpenseCategory) Valid() bool {
	return c <= CategoryParts
}

// ParseExpenseCategory accepts a category code, case-insensitive.
func ParseExpenseCategory(v string) (ExpenseCategory, error) {
	v = strings.TrimSpace(v)
	for _, c := range ExpenseCategories {
		if strings.EqualFold(v, c.String()) {
			return c, nil
		}
	}
	return CategoryOther, fmt.Errorf("%w: %q", ErrUnknownCategory, v)
}

// MarshalText implements encoding.TextMarshaler.
func (c ExpenseCategory) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ExpenseCategory) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = CategoryOther
		return nil
	}
	parsed, err := ParseExpenseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
