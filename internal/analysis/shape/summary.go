package shape

import (
	"cmp"
	"slices"

	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// SiteCount is a count attributed to a source location.
type SiteCount struct {
	Site  typetag.Site `json:"site" yaml:"site"`
	Count int          `json:"count" yaml:"count"`
}

// ShapeSummary describes one signature seen at a polymorphic site.
type ShapeSummary struct {
	Count int `json:"count" yaml:"count"`

	// Layout lists the non-index property names. Nil for the
	// unsignaturable sentinel.
	Layout []string `json:"layout" yaml:"layout"`

	Constructor      string `json:"constructor,omitempty" yaml:"constructor,omitempty"`
	ProtoConstructor string `json:"protoConstructor,omitempty" yaml:"protoConstructor,omitempty"`
	Unsignaturable   bool   `json:"unsignaturable,omitempty" yaml:"unsignaturable,omitempty"`

	// DistinctObjects is the number of objects created inside the trace
	// that were observed with this shape.
	DistinctObjects int `json:"distinctObjects" yaml:"distinctObjects"`

	// Creations sums the observations by the site the objects were created
	// at. Objects created outside the trace are not listed.
	Creations []SiteCount `json:"creations" yaml:"creations"`
}

// PolymorphicSite is a site that saw more than one signature.
type PolymorphicSite struct {
	Site   typetag.Site   `json:"site" yaml:"site"`
	Weight float64        `json:"weight" yaml:"weight"`
	Shapes []ShapeSummary `json:"shapes" yaml:"shapes"`
}

// Summary is the ranked result of shape tracking.
type Summary struct {
	Polymorphic              []PolymorphicSite `json:"polymorphic" yaml:"polymorphic"`
	UninitializedReads       []SiteCount       `json:"uninitializedReads" yaml:"uninitializedReads"`
	ArrayTypeSwitches        []SiteCount       `json:"arrayTypeSwitches" yaml:"arrayTypeSwitches"`
	IncontiguousWrites       []SiteCount       `json:"incontiguousWrites" yaml:"incontiguousWrites"`
	FieldsOutsideConstructor []SiteCount       `json:"fieldsOutsideConstructor" yaml:"fieldsOutsideConstructor"`
	Stats                    Stats             `json:"stats" yaml:"stats"`
}

// Summary ranks polymorphic sites and sorts the counter tables.
//
// Polymorphic sites are ordered by weight, highest first: the count of the
// second most frequent signature dominates, and the most frequent count
// only separates sites whose secondary counts tie. Counter tables are
// ordered by count, highest first. Remaining ties order by site.
func (t *Tracker) Summary() Summary {
	s := Summary{
		UninitializedReads:       sortCounts(t.counters.UninitializedRead),
		ArrayTypeSwitches:        sortCounts(t.counters.ArrayTypeSwitch),
		IncontiguousWrites:       sortCounts(t.counters.IncontiguousWrite),
		FieldsOutsideConstructor: sortCounts(t.counters.FieldOutsideConstructor),
		Stats:                    t.stats,
	}
	for _, r := range t.Records() {
		if !r.Polymorphic() {
			continue
		}
		site := PolymorphicSite{Site: r.Site, Weight: r.weight()}
		for _, e := range r.Entries {
			site.Shapes = append(site.Shapes, t.describe(e))
		}
		s.Polymorphic = append(s.Polymorphic, site)
	}
	slices.SortStableFunc(s.Polymorphic, func(a, b PolymorphicSite) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Site, b.Site)
	})
	return s
}

func (t *Tracker) describe(e *Entry) ShapeSummary {
	out := ShapeSummary{
		Count:          e.Count,
		Unsignaturable: e.Sig.Invalid,
	}
	if !e.Sig.Invalid {
		out.Layout = t.depot.Names(e.Sig.Layout)
		if out.Layout == nil {
			out.Layout = []string{}
		}
		if ctor := t.heap.Lookup(e.Sig.Constructor); ctor != nil {
			out.Constructor = ctor.Name
		}
		if proto := t.heap.Lookup(e.Sig.Proto); proto != nil {
			if pc := t.heap.Lookup(proto.Constructor); pc != nil {
				out.ProtoConstructor = pc.Name
			}
		}
	}
	bySite := make(map[typetag.Site]int)
	for id, n := range e.Instances {
		// Objects created outside the trace share the zero id.
		if id.IsZero() {
			continue
		}
		out.DistinctObjects++
		bySite[id.Site] += n
	}
	out.Creations = sortCounts(bySite)
	return out
}

func sortCounts(m map[typetag.Site]int) []SiteCount {
	out := make([]SiteCount, 0, len(m))
	for site, n := range m {
		out = append(out, SiteCount{Site: site, Count: n})
	}
	slices.SortFunc(out, func(a, b SiteCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Site, b.Site)
	})
	return out
}
