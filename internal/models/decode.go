package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned by DecodeSnapshot when the payload is not a JSON object.
var ErrNotObject = errors.New("snapshot is not a JSON object")

var errNotList = errors.New("not a list")

// Issue describes a record DecodeSnapshot had to patch or drop.
type Issue struct {
	Collection string
	Index      int
	ID         string
	Err        error
	// Dropped is true when the record could not be salvaged at all.
	Dropped bool
}

func (i Issue) String() string {
	action := "patched"
	if i.Dropped {
		action = "dropped"
	}
	return fmt.Sprintf("%s[%d] %q %s: %v", i.Collection, i.Index, i.ID, action, i.Err)
}

// DecodeSnapshot decodes a persisted or exported snapshot record by record.
// Only a payload that is not a JSON object fails. A record with an unknown
// status or category or an unreadable timestamp is patched (PENDING, OTHER,
// zero time). A record that still does not decode is dropped. A collection
// that is not a list is treated as empty. Each patch or drop is reported.
func DecodeSnapshot(data []byte) (*Snapshot, []Issue, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNotObject, err)
	}
	if top == nil {
		return nil, nil, ErrNotObject
	}

	var (
		snap   Snapshot
		issues []Issue
	)
	snap.Clients = decodeList[Client](top, "clients", &issues, patchTimes("createdAt"))
	snap.Devices = decodeList[Device](top, "devices", &issues, patchTimes("createdAt"))
	snap.Repairs = decodeList[Repair](top, "repairs", &issues, patchRepair)
	snap.Expenses = decodeList[Expense](top, "expenses", &issues, patchExpense)
	if raw, ok := top["catalog"]; ok && !isNull(raw) {
		snap.Catalog = decodeList[CatalogEntry](top, "catalog", &issues, nil)
	}
	snap.Normalize()
	return &snap, issues, nil
}

// patcher rewrites the fields of a record that failed to decode so that a
// second attempt can succeed. It reports whether it changed anything.
type patcher func(fields map[string]json.RawMessage) bool

func decodeList[T any](top map[string]json.RawMessage, key string, issues *[]Issue, patch patcher) []T {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*issues = append(*issues, Issue{Collection: key, Index: -1, Err: errNotList, Dropped: true})
		return nil
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		var rec T
		err := json.Unmarshal(item, &rec)
		if err == nil {
			out = append(out, rec)
			continue
		}

		issue := Issue{Collection: key, Index: i, Err: err}
		var fields map[string]json.RawMessage
		if json.Unmarshal(item, &fields) == nil && fields != nil {
			issue.ID = stringField(fields["id"])
			if patch != nil && patch(fields) {
				if patched, merr := json.Marshal(fields); merr == nil {
					rec = *new(T)
					if json.Unmarshal(patched, &rec) == nil {
						out = append(out, rec)
						*issues = append(*issues, issue)
						continue
					}
				}
			}
		}
		issue.Dropped = true
		*issues = append(*issues, issue)
	}
	return out
}

func patchTimes(keys ...string) patcher {
	return func(fields map[string]json.RawMessage) bool {
		changed := false
		for _, k := range keys {
			raw, ok := fields[k]
			if !ok {
				continue
			}
			if _, err := decodeTime(raw); err != nil {
				delete(fields, k)
				changed = true
			}
		}
		return changed
	}
}

func patchRepair(fields map[string]json.RawMessage) bool {
	changed := patchTimes("entryDate", "completionDate")(fields)
	if raw, ok := fields["status"]; ok {
		var st RepairStatus
		if json.Unmarshal(raw, &st) != nil {
			fields["status"] = json.RawMessage(`"PENDING"`)
			changed = true
		}
	}
	return changed
}

func patchExpense(fields map[string]json.RawMessage) bool {
	changed := patchTimes("date")(fields)
	if raw, ok := fields["category"]; ok {
		var c ExpenseCategory
		if json.Unmarshal(raw, &c) != nil {
			fields["category"] = json.RawMessage(`"OTHER"`)
			changed = true
		}
	}
	return changed
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func stringField(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
