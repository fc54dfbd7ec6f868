package typeequiv

import (
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/kolkov/shapecheck/internal/analysis/typeobs"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// Table is a union-find partition of tags into structural equivalence
// classes. The primitive and null tags are always present and never merged.
type Table struct {
	parent map[typetag.Tag]typetag.Tag
}

func newTable(tags []typetag.Tag) *Table {
	t := &Table{parent: make(map[typetag.Tag]typetag.Tag, len(tags)+5)}
	for _, tag := range tags {
		t.parent[tag] = tag
	}
	for _, tag := range typetag.Primitives() {
		t.parent[tag] = tag
	}
	return t
}

// Find returns the root of tag's class. A tag unknown to the table is its
// own root.
func (t *Table) Find(tag typetag.Tag) typetag.Tag {
	for {
		p, ok := t.parent[tag]
		if !ok || p == tag {
			return tag
		}
		tag = p
	}
}

// Contains reports whether tag takes part in the partition.
func (t *Table) Contains(tag typetag.Tag) bool {
	_, ok := t.parent[tag]
	return ok
}

// Same reports whether a and b are in the same class.
func (t *Table) Same(a, b typetag.Tag) bool {
	return t.Find(a) == t.Find(b)
}

// Tags returns every tag in the table in typetag order.
func (t *Table) Tags() []typetag.Tag {
	tags := make([]typetag.Tag, 0, len(t.parent))
	for tag := range t.parent {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, typetag.Compare)
	return tags
}

// Roots returns the class roots in typetag order.
func (t *Table) Roots() []typetag.Tag {
	var roots []typetag.Tag
	for _, tag := range t.Tags() {
		if t.parent[tag] == tag {
			roots = append(roots, tag)
		}
	}
	return roots
}

// Classes returns the members of every class keyed by root, members in
// typetag order.
func (t *Table) Classes() map[typetag.Tag][]typetag.Tag {
	classes := make(map[typetag.Tag][]typetag.Tag)
	for _, tag := range t.Tags() {
		root := t.Find(tag)
		classes[root] = append(classes[root], tag)
	}
	return classes
}

// union merges the classes of a and b. The larger root is attached under the
// smaller one.
func (t *Table) union(a, b typetag.Tag) {
	ra, rb := t.Find(a), t.Find(b)
	switch c := typetag.Compare(ra, rb); {
	case c < 0:
		t.parent[rb] = ra
	case c > 0:
		t.parent[ra] = rb
	}
}

// roots returns the set of class roots of the types in tm.
func (t *Table) roots(tm typeobs.TypeMap) *set.Set[typetag.Tag] {
	s := set.New[typetag.Tag](len(tm))
	for tag := range tm {
		s.Insert(t.Find(tag))
	}
	return s
}

// Equiv computes the structural equivalence classes of the owners in fields.
//
// Two classes merge when their roots have identical field-name sets and, for
// every field, the observed types map to the same set of roots under the
// current partition. Passes repeat until one performs no merge.
func Equiv(fields *typeobs.Table) *Table {
	tags := fields.Tags()
	t := newTable(tags)

	for changed := true; changed; {
		changed = false
		for i, a := range tags {
			if t.Find(a) != a {
				continue
			}
			fa, _ := fields.Fields(a)
			for _, b := range tags[i+1:] {
				if t.Find(b) != b || t.Find(a) != a {
					continue
				}
				fb, _ := fields.Fields(b)
				if t.interchangeable(fa, fb) {
					t.union(a, b)
					changed = true
				}
			}
		}
	}
	return t
}

// interchangeable reports whether two field maps have the same field names
// and, per field, the same root sets.
func (t *Table) interchangeable(fa, fb typeobs.FieldMap) bool {
	if len(fa) != len(fb) {
		return false
	}
	for name, ta := range fa {
		tb, ok := fb[name]
		if !ok {
			return false
		}
		if !t.roots(ta).Equal(t.roots(tb)) {
			return false
		}
	}
	return true
}
