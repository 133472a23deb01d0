// Package idgen produces short opaque identifiers for new records.
package idgen

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in a generated id.
const Length = 7

// maxAttempts bounds the collision retry loop in NextUnique.
const maxAttempts = 64

// space is 36^Length, the number of distinct ids.
var space = func() uint64 {
	n := uint64(1)
	for range Length {
		n *= 36
	}
	return n
}()

// Generator draws ids from random UUIDs and encodes them as upper-case base36.
type Generator struct {
	source func() uuid.UUID
}

// New returns a Generator backed by random (v4) UUIDs.
func New() *Generator {
	return &Generator{source: uuid.New}
}

// NewWithSource returns a Generator that draws from source. Used by tests.
func NewWithSource(source func() uuid.UUID) *Generator {
	return &Generator{source: source}
}

// Next returns a fresh id such as "K3Z09QF".
func (g *Generator) Next() string {
	u := g.source()
	v := binary.BigEndian.Uint64(u[:8]) % space
	id := strings.ToUpper(strconv.FormatUint(v, 36))
	if len(id) < Length {
		id = strings.Repeat("0", Length-len(id)) + id
	}
	return id
}

// NextUnique returns an id for which taken reports false. Ids are unique per
// collection, so callers pass a lookup over the target collection.
func (g *Generator) NextUnique(taken func(id string) bool) string {
	id := g.Next()
	for attempt := 1; taken(id) && attempt < maxAttempts; attempt++ {
		id = g.Next()
	}
	return id
}
