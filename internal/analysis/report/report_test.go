package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kolkov/shapecheck/internal/analysis/shape"
	"github.com/kolkov/shapecheck/internal/analysis/typeequiv"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

var testLocations = ResolverFunc(func(s typetag.Site) string {
	return "main.js:" + s.String()
})

type testNames map[typetag.Tag]string

func (n testNames) Name(tag typetag.Tag) string { return n[tag] }

func inconsistentX() typeequiv.Warning {
	return typeequiv.Warning{
		ID:    1,
		Kind:  typeequiv.InconsistentType,
		Owner: typetag.Tag{Kind: typetag.Object, Site: 10},
		Field: "x",
		Observed: []typeequiv.ObservedType{
			{Type: typetag.NumberTag, Locations: []typetag.Site{10, 11}},
			{Type: typetag.StringTag, Locations: []typetag.Site{12}},
		},
		Diff: &typeequiv.TypeDiff{
			Common: map[string][]typetag.Tag{},
			Diff:   map[string][]typetag.Tag{"": {typetag.NumberTag, typetag.StringTag}},
		},
	}
}

// TestBuild_TypeWarnings tests location resolution and owner descriptions.
func TestBuild_TypeWarnings(t *testing.T) {
	undef := typeequiv.Warning{
		ID:        2,
		Kind:      typeequiv.UndefinedField,
		Owner:     typetag.Tag{Kind: typetag.Object, Site: 20},
		Locations: []typetag.Site{21},
	}
	in := Input{
		Warnings: []typeequiv.Warning{inconsistentX(), undef},
		Names:    testNames{{Kind: typetag.Object, Site: 10}: "Point"},
	}
	got := Build(in, testLocations, Options{}).Types

	want := TypeSection{
		Total: 2,
		Warnings: []TypeWarning{
			{
				ID:    1,
				Kind:  "inconsistent-type",
				Owner: "object Point originated at main.js:10",
				Field: "x",
				Observed: []ObservedType{
					{Type: "number", Locations: []string{"main.js:10", "main.js:11"}},
					{Type: "string", Locations: []string{"main.js:12"}},
				},
				Locations: []string{},
				Diff:      []DiffLine{{Expression: "x", Types: []string{"number", "string"}}},
			},
			{
				ID:        2,
				Kind:      "undefined-field",
				Owner:     "object originated at main.js:20",
				Locations: []string{"main.js:21"},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Types mismatch (-want +got):\n%s", diff)
	}
}

// TestBuild_Limit tests that sections are capped but keep their totals.
func TestBuild_Limit(t *testing.T) {
	var counts []shape.SiteCount
	var poly []shape.PolymorphicSite
	for i := 1; i <= 5; i++ {
		counts = append(counts, shape.SiteCount{Site: typetag.Site(i), Count: 10 - i})
		poly = append(poly, shape.PolymorphicSite{Site: typetag.Site(i)})
	}
	in := Input{Shapes: shape.Summary{
		Polymorphic:              poly,
		UninitializedReads:       counts,
		ArrayTypeSwitches:        counts[:1],
		FieldsOutsideConstructor: counts,
	}}

	tests := []struct {
		name      string
		limit     int
		wantShown int
	}{
		{"default", 0, 5},
		{"two", 2, 2},
		{"above total", 8, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Build(in, testLocations, Options{Limit: tt.limit})
			if r.UninitializedReads.Total != 5 || len(r.UninitializedReads.Entries) != tt.wantShown {
				t.Errorf("UninitializedReads = %d shown of %d, want %d of 5",
					len(r.UninitializedReads.Entries), r.UninitializedReads.Total, tt.wantShown)
			}
			if r.Polymorphic.Total != 5 || len(r.Polymorphic.Sites) != tt.wantShown {
				t.Errorf("Polymorphic = %d shown of %d, want %d of 5",
					len(r.Polymorphic.Sites), r.Polymorphic.Total, tt.wantShown)
			}
			if r.ArrayTypeSwitches.Total != 1 || r.IncontiguousWrites.Total != 0 {
				t.Errorf("small sections = %+v, %+v", r.ArrayTypeSwitches, r.IncontiguousWrites)
			}
			if got := r.UninitializedReads.Entries[0]; got != (Occurrence{Location: "main.js:1", Count: 9}) {
				t.Errorf("first entry = %+v", got)
			}
		})
	}
}

// TestBuild_Polymorphic tests layout rendering of polymorphic sites.
func TestBuild_Polymorphic(t *testing.T) {
	in := Input{Shapes: shape.Summary{Polymorphic: []shape.PolymorphicSite{{
		Site:   7,
		Weight: 1.2,
		Shapes: []shape.ShapeSummary{
			{
				Count:            2,
				Layout:           []string{"x", "y"},
				Constructor:      "Point",
				ProtoConstructor: "Point",
				DistinctObjects:  2,
				Creations:        []shape.SiteCount{{Site: 3, Count: 1}, {Site: 9, Count: 1}},
			},
			{Count: 1, Unsignaturable: true, DistinctObjects: 1},
		},
	}}}}
	got := Build(in, nil, Options{}).Polymorphic.Sites

	want := []PolymorphicSite{{
		Location: "site 7",
		Weight:   1.2,
		Layouts: []Layout{
			{
				Count:           2,
				Layout:          "x|y| proto: Point constructor: Point",
				DistinctObjects: 2,
				Creations:       []Occurrence{{"site 3", 1}, {"site 9", 1}},
			},
			{Count: 1, Layout: "(unsignaturable)", DistinctObjects: 1},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Polymorphic mismatch (-want +got):\n%s", diff)
	}
}

// TestFormat tests the text rendering.
func TestFormat(t *testing.T) {
	in := Input{
		Warnings: []typeequiv.Warning{inconsistentX()},
		Shapes: shape.Summary{
			ArrayTypeSwitches: []shape.SiteCount{{Site: 4, Count: 1}},
			Stats:             shape.Stats{SignaturesGenerated: 3, SignatureLookups: 9},
		},
	}
	out := Build(in, testLocations, Options{}).String()

	for _, want := range []string{
		"==================\nWARNING: INCONSISTENT TYPES (1)\n",
		"x of object originated at main.js:10 has multiple types:\n",
		"    number\n        found at main.js:10\n        found at main.js:11\n",
		"    Type diff:\n        x has types number,string\n",
		"Number of type warnings: 1\n",
		"Number of polymorphic statements spotted: 0\n",
		"  main.js:4  No. usages: 1\n",
		"Number of array type switches spotted: 1\nWhy: ",
		"Total signatures generated: 3\nTotal signature lookups: 9\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output to a non-terminal must not contain ANSI sequences")
	}
}

// TestFit tests display-width alignment of location columns.
func TestFit(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"pad", "a.js:1", 8, "a.js:1  "},
		{"exact", "a.js:1", 6, "a.js:1"},
		{"wide runes", "日本.js", 9, "日本.js  "},
		{"truncate", "very/long/path.js:12", 10, "very/lo..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fit(tt.in, tt.width); got != tt.want {
				t.Errorf("fit(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

// TestColumnWidth tests that the widest location sets the column.
func TestColumnWidth(t *testing.T) {
	entries := []Occurrence{{Location: "a.js:1"}, {Location: "日本.js:10"}}
	if got := columnWidth(entries); got != 10 {
		t.Errorf("columnWidth() = %d, want 10", got)
	}
	long := []Occurrence{{Location: strings.Repeat("x", 100)}}
	if got := columnWidth(long); got != maxLocationWidth {
		t.Errorf("columnWidth(long) = %d, want %d", got, maxLocationWidth)
	}
}
