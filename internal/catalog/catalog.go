// Package catalog holds the reference list of phone brands and models.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

// ErrInvalidCatalog is returned when an imported catalog fails the acceptance check.
var ErrInvalidCatalog = errors.New("invalid catalog")

var defaultCatalog = []models.CatalogEntry{
	{Brand: "Apple", Models: []string{"iPhone 15 Pro Max", "iPhone 15", "iPhone 14 Pro", "iPhone 13", "iPhone 12", "iPhone 11", "iPhone X/XS"}},
	{Brand: "Samsung", Models: []string{"Galaxy S24 Ultra", "Galaxy S23", "Galaxy A54", "Galaxy A34", "Galaxy A14", "Note 20 Ultra"}},
	{Brand: "Xiaomi", Models: []string{"Redmi Note 13", "POCO X6", "Xiaomi 14", "Redmi 12"}},
	{Brand: "Oppo", Models: []string{"Reno 10", "A78", "A58"}},
	{Brand: "Realme", Models: []string{"11 Pro", "C55", "C53"}},
}

var commonServices = []string{
	"تغيير شاشة وتاتش",
	"تغيير باغة (Glass)",
	"تغيير بطارية",
	"تغيير سوكت شحن",
	"سوفت وير / فورمات",
	"صيانة داخلية (بوردة)",
	"تغيير هاوسينج / شاسية",
	"تغيير سماعة / مايك",
	"اسكرينة حماية",
	"تنظيف وتطهير",
}

// Default returns a fresh copy of the built-in seed catalog.
func Default() []models.CatalogEntry {
	return Clone(defaultCatalog)
}

// CommonServices returns the quick-pick service names offered on intake.
func CommonServices() []string {
	return slices.Clone(commonServices)
}

// Clone deep-copies a catalog so callers cannot mutate shared model lists.
func Clone(entries []models.CatalogEntry) []models.CatalogEntry {
	if entries == nil {
		return nil
	}
	out := make([]models.CatalogEntry, len(entries))
	for i, e := range entries {
		out[i] = models.CatalogEntry{Brand: e.Brand, Models: slices.Clone(e.Models)}
		if out[i].Models == nil {
			out[i].Models = []string{}
		}
	}
	return out
}

// ParseImport validates and decodes an uploaded catalog. The payload must be a
// non-empty JSON list whose first element carries a brand. The result replaces
// the stored catalog as-is: entries are neither merged nor deduplicated.
func ParseImport(data []byte) ([]models.CatalogEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON list of brands", ErrInvalidCatalog)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: list is empty", ErrInvalidCatalog)
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(raw[0], &first); err != nil {
		return nil, fmt.Errorf("%w: first entry is not an object", ErrInvalidCatalog)
	}
	var brand string
	if err := json.Unmarshal(first["brand"], &brand); err != nil || strings.TrimSpace(brand) == "" {
		return nil, fmt.Errorf("%w: first entry has no brand", ErrInvalidCatalog)
	}

	entries := make([]models.CatalogEntry, 0, len(raw))
	for i, item := range raw {
		var e models.CatalogEntry
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidCatalog, i, err)
		}
		if e.Models == nil {
			e.Models = []string{}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MatchBrand finds the catalog brand for a free-text guess, such as the brand
// returned by the photo classifier. Matching is case-insensitive and the
// catalog's spelling is returned. ok is false when nothing matches.
func MatchBrand(guess string, entries []models.CatalogEntry) (models.CatalogEntry, bool) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return models.CatalogEntry{}, false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Brand, guess) {
			return e, true
		}
	}
	return models.CatalogEntry{}, false
}

// MatchModel finds a model of the given brand entry, case-insensitively.
// Models listed by the classifier with the brand prefixed ("Samsung Galaxy A54")
// still match.
func MatchModel(guess string, entry models.CatalogEntry) (string, bool) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return "", false
	}
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(guess), strings.ToLower(entry.Brand)))
	for _, m := range entry.Models {
		if strings.EqualFold(m, guess) || strings.EqualFold(m, trimmed) {
			return m, true
		}
	}
	return "", false
}
