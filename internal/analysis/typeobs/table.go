// Package typeobs accumulates observed field and call-signature types.
//
// The recorder is a pure accumulator: it tags allocations, and for every
// field access or call on a tracked value it records which type was seen at
// which source location. No cross-object reasoning happens here; the
// typeequiv package analyzes the finished tables.
package typeobs

import (
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// TypeMap maps an observed type to the set of sites where it was seen.
type TypeMap map[typetag.Tag]*set.Set[typetag.Site]

// FieldMap maps a field name (or a call slot: "this", "return", "argN") to
// the types observed there.
type FieldMap map[string]TypeMap

// Table maps owner tags to their field maps.
//
// A tag that has an entry, even an empty one, is "known" to the table. The
// analyzer relies on that distinction: a known tag with no fields is a
// structural supertype of every other known tag, while an unknown tag (a
// primitive, or an uncalled function in the signature table) has no
// structure at all.
type Table struct {
	owners map[typetag.Tag]FieldMap
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{owners: make(map[typetag.Tag]FieldMap)}
}

// Ensure returns owner's field map, creating an empty one if needed.
func (t *Table) Ensure(owner typetag.Tag) FieldMap {
	fm, ok := t.owners[owner]
	if !ok {
		fm = make(FieldMap)
		t.owners[owner] = fm
	}
	return fm
}

// Record notes that field of owner held a value of type observed at site.
func (t *Table) Record(owner typetag.Tag, field string, observed typetag.Tag, site typetag.Site) {
	fm := t.Ensure(owner)
	tm, ok := fm[field]
	if !ok {
		tm = make(TypeMap)
		fm[field] = tm
	}
	locs, ok := tm[observed]
	if !ok {
		locs = set.New[typetag.Site](1)
		tm[observed] = locs
	}
	locs.Insert(site)
}

// Fields returns owner's field map and whether owner is known.
func (t *Table) Fields(owner typetag.Tag) (FieldMap, bool) {
	fm, ok := t.owners[owner]
	return fm, ok
}

// Contains reports whether owner is known.
func (t *Table) Contains(owner typetag.Tag) bool {
	_, ok := t.owners[owner]
	return ok
}

// Tags returns all owner tags in typetag order.
func (t *Table) Tags() []typetag.Tag {
	tags := make([]typetag.Tag, 0, len(t.owners))
	for tag := range t.owners {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, typetag.Compare)
	return tags
}

// Len returns the number of owners.
func (t *Table) Len() int {
	return len(t.owners)
}

// Names returns the field names in lexicographic order.
func (fm FieldMap) Names() []string {
	names := make([]string, 0, len(fm))
	for name := range fm {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Tags returns the observed types in typetag order.
func (tm TypeMap) Tags() []typetag.Tag {
	tags := make([]typetag.Tag, 0, len(tm))
	for tag := range tm {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, typetag.Compare)
	return tags
}

// Locations returns the sites where tag was observed, ascending.
func (tm TypeMap) Locations(tag typetag.Tag) []typetag.Site {
	locs, ok := tm[tag]
	if !ok {
		return nil
	}
	sites := locs.Slice()
	slices.Sort(sites)
	return sites
}
