package report

import (
	"fmt"
	"strings"

	"github.com/kolkov/shapecheck/internal/analysis/shape"
	"github.com/kolkov/shapecheck/internal/analysis/typeequiv"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// DefaultLimit is the number of entries shown per section when
// Options.Limit is zero.
const DefaultLimit = 30

// Resolver maps a site id to a human-readable source location.
type Resolver interface {
	Resolve(site typetag.Site) string
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(site typetag.Site) string

// Resolve calls f(site).
func (f ResolverFunc) Resolve(site typetag.Site) string { return f(site) }

// Namer returns the display name registered for a tag. *typeobs.Observations
// implements it.
type Namer interface {
	Name(tag typetag.Tag) string
}

// Input is everything a report is built from.
type Input struct {
	Warnings []typeequiv.Warning
	Shapes   shape.Summary

	// Names is optional.
	Names Namer
}

// Options configures Build.
type Options struct {
	// Limit caps the entries of every section. Zero or negative means
	// DefaultLimit.
	Limit int
}

// Report is a diagnostic report, independent of its rendering.
type Report struct {
	Types                    TypeSection        `json:"types" yaml:"types"`
	Polymorphic              PolymorphicSection `json:"polymorphic" yaml:"polymorphic"`
	UninitializedReads       CounterSection     `json:"uninitializedReads" yaml:"uninitializedReads"`
	ArrayTypeSwitches        CounterSection     `json:"arrayTypeSwitches" yaml:"arrayTypeSwitches"`
	IncontiguousWrites       CounterSection     `json:"incontiguousWrites" yaml:"incontiguousWrites"`
	FieldsOutsideConstructor CounterSection     `json:"fieldsOutsideConstructor" yaml:"fieldsOutsideConstructor"`
	Stats                    shape.Stats        `json:"stats" yaml:"stats"`
}

// TypeSection lists type warnings.
type TypeSection struct {
	Total    int           `json:"total" yaml:"total"`
	Warnings []TypeWarning `json:"warnings" yaml:"warnings"`
}

// TypeWarning is a warning with resolved locations.
type TypeWarning struct {
	ID   int    `json:"id" yaml:"id"`
	Kind string `json:"kind" yaml:"kind"`

	// Owner describes the type or function the warning is about.
	Owner string `json:"owner" yaml:"owner"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`

	Observed  []ObservedType `json:"observed,omitempty" yaml:"observed,omitempty"`
	Locations []string       `json:"locations,omitempty" yaml:"locations,omitempty"`

	// Diff lists the expressions telling the observed types apart.
	Diff []DiffLine `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// ObservedType is one observed type of an inconsistent field.
type ObservedType struct {
	Type      string   `json:"type" yaml:"type"`
	Locations []string `json:"locations" yaml:"locations"`
}

// DiffLine is one distinguishing expression, rooted at the warning's field.
type DiffLine struct {
	Expression string   `json:"expression" yaml:"expression"`
	Types      []string `json:"types" yaml:"types"`
}

// PolymorphicSection lists the highest ranked polymorphic sites.
type PolymorphicSection struct {
	Total int               `json:"total" yaml:"total"`
	Sites []PolymorphicSite `json:"sites" yaml:"sites"`
}

// PolymorphicSite is a site that saw several layouts.
type PolymorphicSite struct {
	Location string   `json:"location" yaml:"location"`
	Weight   float64  `json:"weight" yaml:"weight"`
	Layouts  []Layout `json:"layouts" yaml:"layouts"`
}

// Layout is one signature seen at a polymorphic site.
type Layout struct {
	Count           int          `json:"count" yaml:"count"`
	Layout          string       `json:"layout" yaml:"layout"`
	DistinctObjects int          `json:"distinctObjects" yaml:"distinctObjects"`
	Creations       []Occurrence `json:"creations,omitempty" yaml:"creations,omitempty"`
}

// Occurrence is a count at a resolved location.
type Occurrence struct {
	Location string `json:"location" yaml:"location"`
	Count    int    `json:"count" yaml:"count"`
}

// CounterSection is one of the four shape counter tables.
type CounterSection struct {
	Total   int          `json:"total" yaml:"total"`
	Entries []Occurrence `json:"entries" yaml:"entries"`
}

// Build assembles a report from in. A nil resolver renders raw site ids.
func Build(in Input, resolver Resolver, opts Options) *Report {
	b := builder{
		resolver: resolver,
		names:    in.Names,
		limit:    opts.Limit,
	}
	if b.limit <= 0 {
		b.limit = DefaultLimit
	}
	if b.resolver == nil {
		b.resolver = ResolverFunc(func(s typetag.Site) string { return "site " + s.String() })
	}

	r := &Report{Stats: in.Shapes.Stats}
	r.Types.Total = len(in.Warnings)
	for i := range in.Warnings[:min(len(in.Warnings), b.limit)] {
		r.Types.Warnings = append(r.Types.Warnings, b.warning(&in.Warnings[i]))
	}

	poly := in.Shapes.Polymorphic
	r.Polymorphic.Total = len(poly)
	for _, p := range poly[:min(len(poly), b.limit)] {
		r.Polymorphic.Sites = append(r.Polymorphic.Sites, b.polymorphic(p))
	}

	r.UninitializedReads = b.counters(in.Shapes.UninitializedReads)
	r.ArrayTypeSwitches = b.counters(in.Shapes.ArrayTypeSwitches)
	r.IncontiguousWrites = b.counters(in.Shapes.IncontiguousWrites)
	r.FieldsOutsideConstructor = b.counters(in.Shapes.FieldsOutsideConstructor)
	return r
}

type builder struct {
	resolver Resolver
	names    Namer
	limit    int
}

func (b *builder) locations(sites []typetag.Site) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = b.resolver.Resolve(s)
	}
	return out
}

// describe renders a tag as "<kind> [name] originated at <location>".
// Primitives and untracked references render as their kind only.
func (b *builder) describe(tag typetag.Tag) string {
	if tag.Site == 0 {
		return tag.String()
	}
	var sb strings.Builder
	sb.WriteString(tag.Kind.String())
	if b.names != nil {
		if name := b.names.Name(tag); name != "" {
			sb.WriteString(" ")
			sb.WriteString(name)
		}
	}
	sb.WriteString(" originated at ")
	sb.WriteString(b.resolver.Resolve(tag.Site))
	return sb.String()
}

func (b *builder) warning(w *typeequiv.Warning) TypeWarning {
	out := TypeWarning{
		ID:        w.ID,
		Kind:      w.Kind.String(),
		Owner:     b.describe(w.Owner),
		Field:     w.Field,
		Locations: b.locations(w.Locations),
	}
	for _, o := range w.Observed {
		out.Observed = append(out.Observed, ObservedType{
			Type:      b.describe(o.Type),
			Locations: b.locations(o.Locations),
		})
	}
	if w.Diff != nil {
		for _, expr := range w.Diff.DiffExpressions() {
			tags := w.Diff.Diff[expr]
			types := make([]string, len(tags))
			for i, t := range tags {
				types[i] = t.String()
			}
			out.Diff = append(out.Diff, DiffLine{Expression: w.Field + expr, Types: types})
		}
	}
	return out
}

func (b *builder) polymorphic(p shape.PolymorphicSite) PolymorphicSite {
	out := PolymorphicSite{Location: b.resolver.Resolve(p.Site), Weight: p.Weight}
	for _, s := range p.Shapes {
		l := Layout{
			Count:           s.Count,
			Layout:          layoutString(s),
			DistinctObjects: s.DistinctObjects,
		}
		for _, c := range s.Creations {
			l.Creations = append(l.Creations, Occurrence{Location: b.resolver.Resolve(c.Site), Count: c.Count})
		}
		out.Layouts = append(out.Layouts, l)
	}
	return out
}

// layoutString renders a signature as its property names followed by the
// constructor of the prototype and the object's own constructor.
func layoutString(s shape.ShapeSummary) string {
	if s.Unsignaturable {
		return "(unsignaturable)"
	}
	var sb strings.Builder
	for _, name := range s.Layout {
		sb.WriteString(name)
		sb.WriteString("|")
	}
	fmt.Fprintf(&sb, " proto: %s constructor: %s", orUnknown(s.ProtoConstructor), orUnknown(s.Constructor))
	return sb.String()
}

func orUnknown(name string) string {
	if name == "" {
		return "(anonymous)"
	}
	return name
}

func (b *builder) counters(counts []shape.SiteCount) CounterSection {
	sec := CounterSection{Total: len(counts)}
	for _, c := range counts[:min(len(counts), b.limit)] {
		sec.Entries = append(sec.Entries, Occurrence{Location: b.resolver.Resolve(c.Site), Count: c.Count})
	}
	return sec
}
