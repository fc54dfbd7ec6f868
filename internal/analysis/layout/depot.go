// Package layout interns object property layouts and defines shape signatures.
//
// A layout is the ordered list of non-index own property names of an object.
// Objects with the same layout share one interned ID, so shape signatures
// compare by a single integer instead of a string walk.
//
// Design:
//   - FNV-1a hash of the names buckets candidate layouts
//   - Collisions are resolved by comparing the names, so equal IDs always
//     mean equal layouts
//   - IDs are dense and start at 1; 0 is reserved for "no layout"
//
// Usage:
//
//	d := layout.NewDepot()
//	id := d.Intern([]string{"x", "y"})
//	d.Names(id) // ["x", "y"]
package layout

import (
	"hash/fnv"
	"slices"
	"strings"
)

// ID is an interned layout. The zero ID is never issued.
type ID uint32

// Depot stores each distinct layout once.
//
// Thread Safety: NOT safe for concurrent use. A depot belongs to a single
// shape tracker, which processes events sequentially.
type Depot struct {
	buckets map[uint64][]ID
	layouts [][]string
}

// NewDepot creates an empty depot.
func NewDepot() *Depot {
	return &Depot{buckets: make(map[uint64][]ID)}
}

// Intern returns the ID of the layout with the given names, storing a copy
// of names on first sight.
func (d *Depot) Intern(names []string) ID {
	h := hashLayout(names)
	for _, id := range d.buckets[h] {
		if slices.Equal(d.layouts[id-1], names) {
			return id
		}
	}
	d.layouts = append(d.layouts, slices.Clone(names))
	id := ID(len(d.layouts))
	d.buckets[h] = append(d.buckets[h], id)
	return id
}

// Names returns the property names of an interned layout, or nil for an
// unknown ID. The returned slice must not be modified.
func (d *Depot) Names(id ID) []string {
	if id == 0 || int(id) > len(d.layouts) {
		return nil
	}
	return d.layouts[id-1]
}

// String renders a layout as "a|b|c|".
func (d *Depot) String(id ID) string {
	var b strings.Builder
	for _, name := range d.Names(id) {
		b.WriteString(name)
		b.WriteByte('|')
	}
	return b.String()
}

// Len returns the number of distinct layouts.
func (d *Depot) Len() int {
	return len(d.layouts)
}

// Reset forgets all layouts (for tests).
func (d *Depot) Reset() {
	d.buckets = make(map[uint64][]ID)
	d.layouts = nil
}

// hashLayout computes the FNV-1a hash of the names. A zero byte separates
// names so ["ab"] and ["a", "b"] hash differently.
func hashLayout(names []string) uint64 {
	h := fnv.New64a()
	for _, name := range names {
		_, _ = h.Write([]byte(name)) // Write never returns error for hash.Hash.
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
