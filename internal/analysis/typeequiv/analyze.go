package typeequiv

import (
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/kolkov/shapecheck/internal/analysis/typeobs"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// DefaultMaxTypesForDiff bounds the number of observed types for which a
// type diff is computed.
const DefaultMaxTypesForDiff = 5

// Options configures Analyze.
type Options struct {
	// MaxTypesForDiff is the largest number of observed types a warning may
	// have to get a TypeDiff. Zero means DefaultMaxTypesForDiff; a negative
	// value disables diffs.
	MaxTypesForDiff int
}

// Result is the outcome of one analysis run.
type Result struct {
	// Table is the structural equivalence partition.
	Table *Table

	// Observations are the analyzed tables, exported for visualizers.
	Observations *typeobs.Observations

	// Warnings are ordered by ID: field-table warnings first, then
	// call-signature warnings.
	Warnings []Warning
}

// Highlighted returns the union of all warnings' highlighted tags.
func (r *Result) Highlighted() []typetag.Tag {
	s := set.New[typetag.Tag](len(r.Warnings))
	for _, w := range r.Warnings {
		s.InsertSlice(w.Highlighted)
	}
	tags := s.Slice()
	slices.SortFunc(tags, typetag.Compare)
	return tags
}

// Analyze computes equivalence classes and inconsistency warnings.
//
// Analyze does not modify obs, so repeated runs over the same observations
// produce identical results.
func Analyze(obs *typeobs.Observations, opts Options) *Result {
	if opts.MaxTypesForDiff == 0 {
		opts.MaxTypesForDiff = DefaultMaxTypesForDiff
	}
	a := &analyzer{obs: obs, table: Equiv(obs.Fields), nextID: 1}
	a.scan(obs.Fields)
	a.scan(obs.Signatures)

	for i := range a.warnings {
		w := &a.warnings[i]
		if w.Kind != InconsistentType || len(w.Observed) > opts.MaxTypesForDiff {
			continue
		}
		types := make([]typetag.Tag, len(w.Observed))
		for j, o := range w.Observed {
			types[j] = o.Type
		}
		w.Diff = a.typeDiff(types)
	}
	return &Result{Table: a.table, Observations: obs, Warnings: a.warnings}
}

type analyzer struct {
	obs      *typeobs.Observations
	table    *Table
	warnings []Warning
	nextID   int
}

// scan checks every class root of owners once.
func (a *analyzer) scan(owners *typeobs.Table) {
	done := set.New[typetag.Tag](owners.Len())
	for _, tag := range owners.Tags() {
		root := a.table.Find(tag)
		if !done.Insert(root) {
			continue
		}
		fields, ok := owners.Fields(root)
		if !ok {
			continue
		}
		names := fields.Names()
		if tm, ok := fields["undefined"]; ok {
			a.emit(Warning{
				Kind:        UndefinedField,
				Owner:       root,
				Locations:   allLocations(tm),
				Highlighted: []typetag.Tag{root},
			})
		}
		for _, name := range names {
			tm := fields[name]
			if len(tm) > 1 && a.inconsistent(tm) {
				a.emit(Warning{
					Kind:        InconsistentType,
					Owner:       root,
					Field:       name,
					Observed:    a.observed(tm),
					Highlighted: []typetag.Tag{root},
				})
			}
		}
	}
}

func (a *analyzer) emit(w Warning) {
	w.ID = a.nextID
	a.nextID++
	a.warnings = append(a.warnings, w)
}

// inconsistent reports whether some pair of distinct-class types in tm is
// neither structurally related nor a pair of possibly compatible functions.
func (a *analyzer) inconsistent(tm typeobs.TypeMap) bool {
	types := tm.Tags()
	for i, t1 := range types {
		if !a.table.Contains(t1) {
			continue
		}
		for _, t2 := range types[i+1:] {
			if !a.table.Contains(t2) || a.table.Same(t1, t2) {
				continue
			}
			if !a.structuralSubtypes(t1, t2) && !a.potentiallyCompatibleFunctions(t1, t2) {
				return true
			}
		}
	}
	return false
}

// observed groups the types in tm by class.
func (a *analyzer) observed(tm typeobs.TypeMap) []ObservedType {
	var out []ObservedType
	index := make(map[typetag.Tag]int)
	for _, tag := range tm.Tags() {
		root := a.table.Find(tag)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, ObservedType{Type: tag})
		}
		out[i].Locations = append(out[i].Locations, tm.Locations(tag)...)
	}
	for i := range out {
		slices.Sort(out[i].Locations)
		out[i].Locations = slices.Compact(out[i].Locations)
	}
	return out
}

func allLocations(tm typeobs.TypeMap) []typetag.Site {
	s := set.New[typetag.Site](len(tm))
	for _, locs := range tm {
		s.InsertSet(locs)
	}
	sites := s.Slice()
	slices.Sort(sites)
	return sites
}

// structuralSubtypes reports whether either type is a structural subtype of
// (or structurally the same as) the other.
func (a *analyzer) structuralSubtypes(t1, t2 typetag.Tag) bool {
	return a.isSubtypeOrSame(t1, t2) || a.isSubtypeOrSame(t2, t1)
}

// isSubtypeOrSame reports whether every field of super exists in sub and
// all observations of that field in both share a single class. Types
// without structure (primitives, uncalled functions) never qualify.
func (a *analyzer) isSubtypeOrSame(super, sub typetag.Tag) bool {
	superFields, ok := a.obs.FieldTypes(super)
	if !ok {
		return false
	}
	subFields, ok := a.obs.FieldTypes(sub)
	if !ok {
		return false
	}
	if len(superFields) > len(subFields) {
		return false
	}
	for name, superTypes := range superFields {
		subTypes, ok := subFields[name]
		if !ok {
			return false
		}
		if !a.haveSingleRoot(superTypes, subTypes) {
			return false
		}
	}
	return true
}

// haveSingleRoot reports whether all types in both maps share one class.
func (a *analyzer) haveSingleRoot(tms ...typeobs.TypeMap) bool {
	var root typetag.Tag
	seen := false
	for _, tm := range tms {
		for tag := range tm {
			r := a.table.Find(tag)
			if seen && r != root {
				return false
			}
			root, seen = r, true
		}
	}
	return true
}

// potentiallyCompatibleFunctions reports whether both types are functions
// and at least one was never called, so its signature is unknown.
func (a *analyzer) potentiallyCompatibleFunctions(t1, t2 typetag.Tag) bool {
	if !t1.IsFunction() || !t2.IsFunction() {
		return false
	}
	return !a.obs.Signatures.Contains(t1) || !a.obs.Signatures.Contains(t2)
}
