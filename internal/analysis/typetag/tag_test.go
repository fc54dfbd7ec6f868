package typetag

import (
	"errors"
	"slices"
	"testing"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
)

// TestTagString_RoundTrip verifies String and Parse are inverses.
func TestTagString_RoundTrip(t *testing.T) {
	tests := []struct {
		tag  Tag
		text string
	}{
		{NumberTag, "number"},
		{StringTag, "string"},
		{BooleanTag, "boolean"},
		{UndefinedTag, "undefined"},
		{NullTag, "object(null)"},
		{Tag{Kind: Object, Site: 12}, "object(12)"},
		{Tag{Kind: Array, Site: 3}, "array(3)"},
		{Tag{Kind: Function, Site: 40}, "function(40)"},
		{Tag{Kind: Object}, "object"},
		{Tag{Kind: Function}, "function"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := tt.tag.String(); got != tt.text {
				t.Errorf("String() = %q, want %q", got, tt.text)
			}
			parsed, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.text, err)
			}
			if parsed != tt.tag {
				t.Errorf("Parse(%q) = %v, want %v", tt.text, parsed, tt.tag)
			}
		})
	}
}

// TestParse_Malformed verifies rejection of unknown tag text.
func TestParse_Malformed(t *testing.T) {
	for _, text := range []string{"", "null", "thing", "number(3)", "object(", "object(x)", "object(0)"} {
		if _, err := Parse(text); !errors.Is(err, ErrMalformedTag) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformedTag", text, err)
		}
	}
}

// TestCompare_TotalOrder verifies sorting is deterministic and kind-major.
func TestCompare_TotalOrder(t *testing.T) {
	tags := []Tag{
		{Kind: Object, Site: 10},
		NumberTag,
		{Kind: Array, Site: 2},
		{Kind: Object, Site: 9},
		{Kind: Function, Site: 1},
		NullTag,
	}
	slices.SortFunc(tags, Compare)

	want := []Tag{
		{Kind: Array, Site: 2},
		{Kind: Function, Site: 1},
		NullTag,
		NumberTag,
		{Kind: Object, Site: 9},
		{Kind: Object, Site: 10},
	}
	if !slices.Equal(tags, want) {
		t.Errorf("sorted = %v, want %v", tags, want)
	}
	if Compare(NumberTag, NumberTag) != 0 {
		t.Error("Compare(x, x) != 0")
	}
}

type fakeResolver map[heap.ID]Tag

func (f fakeResolver) TagOf(id heap.ID) (Tag, bool) {
	tag, ok := f[id]
	return tag, ok
}

// TestOf verifies observed type computation for every value variant.
func TestOf(t *testing.T) {
	h := heap.New()
	_ = h.Add(heap.NewObject(1, heap.Plain))
	_ = h.Add(heap.NewObject(2, heap.Function))
	_ = h.Add(heap.NewObject(3, heap.Array))
	r := fakeResolver{1: {Kind: Object, Site: 7}}

	tests := []struct {
		name string
		v    heap.Value
		want Tag
	}{
		{"undefined", heap.Undefined(), UndefinedTag},
		{"null", heap.Null(), NullTag},
		{"bool", heap.Bool(true), BooleanTag},
		{"number", heap.Number(1), NumberTag},
		{"string", heap.Str("s"), StringTag},
		{"tracked", heap.Ref(1), Tag{Kind: Object, Site: 7}},
		{"untracked function", heap.Ref(2), Tag{Kind: Function}},
		{"untracked array", heap.Ref(3), Tag{Kind: Object}},
		{"undeclared", heap.Ref(99), Tag{Kind: Object}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.v, h, r); got != tt.want {
				t.Errorf("Of(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}
