package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Records are decoded leniently so that hand-edited backups and exports from
// the older browser build (epoch-millisecond timestamps, quoted or missing
// amounts) still load. Encoding always produces the canonical form.

// CoerceAmount decodes a JSON money value. Missing, null or non-numeric
// input yields zero.
func CoerceAmount(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAmount parses user-entered money text. Anything unparsable yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// timeLayouts are tried in order. Date-only values come from hand-edited
// backups and the browser's date inputs; they are read as UTC midnight.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", time.DateOnly}

func decodeTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	ms, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s: %w", raw, err)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Client) UnmarshalJSON(data []byte) error {
	type alias Client
	aux := struct {
		*alias
		CreatedAt json.RawMessage `json:"createdAt"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := decodeTime(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("client %s createdAt: %w", c.ID, err)
	}
	c.CreatedAt = t
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Device) UnmarshalJSON(data []byte) error {
	type alias Device
	aux := struct {
		*alias
		CreatedAt json.RawMessage `json:"createdAt"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := decodeTime(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("device %s createdAt: %w", d.ID, err)
	}
	d.CreatedAt = t
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Repair) UnmarshalJSON(data []byte) error {
	type alias Repair
	aux := struct {
		*alias
		CostParts      json.RawMessage `json:"costParts"`
		CostServices   json.RawMessage `json:"costServices"`
		CostOther      json.RawMessage `json:"costOther"`
		TotalCost      json.RawMessage `json:"totalCost"`
		PaidAmount     json.RawMessage `json:"paidAmount"`
		EntryDate      json.RawMessage `json:"entryDate"`
		CompletionDate json.RawMessage `json:"completionDate"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.CostParts = CoerceAmount(aux.CostParts)
	r.CostServices = CoerceAmount(aux.CostServices)
	r.CostOther = CoerceAmount(aux.CostOther)
	r.TotalCost = CoerceAmount(aux.TotalCost)
	r.PaidAmount = CoerceAmount(aux.PaidAmount)

	entry, err := decodeTime(aux.EntryDate)
	if err != nil {
		return fmt.Errorf("repair %s entryDate: %w", r.ID, err)
	}
	r.EntryDate = entry

	completion, err := decodeTime(aux.CompletionDate)
	if err != nil {
		return fmt.Errorf("repair %s completionDate: %w", r.ID, err)
	}
	r.CompletionDate = nil
	if !completion.IsZero() {
		r.CompletionDate = &completion
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expense) UnmarshalJSON(data []byte) error {
	type alias Expense
	aux := struct {
		*alias
		Amount json.RawMessage `json:"amount"`
		Date   json.RawMessage `json:"date"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Amount = CoerceAmount(aux.Amount)
	t, err := decodeTime(aux.Date)
	if err != nil {
		return fmt.Errorf("expense %s date: %w", e.ID, err)
	}
	e.Date = t
	return nil
}
