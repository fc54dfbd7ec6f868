// Package typetag defines the abstract type names assigned to traced values.
//
// A Tag names either a primitive kind or an allocation-site qualified object,
// array or function. All values created at the same allocation site share one
// Tag, which keeps the type model finite regardless of how many objects the
// traced program creates.
package typetag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
)

// Site identifies a source location (an instruction id issued by the
// harness). Site 0 means "no site".
type Site uint32

// String returns the decimal site id.
func (s Site) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// Kind is the variant of a Tag.
type Kind uint8

const (
	// Undefined is the undefined primitive.
	Undefined Kind = iota
	// Null is the null value.
	Null
	// Boolean is the boolean primitive.
	Boolean
	// Number is the number primitive.
	Number
	// String is the string primitive.
	String
	// Object is a plain object.
	Object
	// Array is an array.
	Array
	// Function is a function.
	Function
)

var kindNames = [...]string{
	Undefined: "undefined",
	Null:      "null",
	Boolean:   "boolean",
	Number:    "number",
	String:    "string",
	Object:    "object",
	Array:     "array",
	Function:  "function",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Tag is an observed runtime type. Tags are comparable and used as map keys.
type Tag struct {
	Kind Kind
	Site Site
}

// Fixed tags for primitive kinds and null. They never carry a site.
var (
	UndefinedTag = Tag{Kind: Undefined}
	NullTag      = Tag{Kind: Null}
	BooleanTag   = Tag{Kind: Boolean}
	NumberTag    = Tag{Kind: Number}
	StringTag    = Tag{Kind: String}
)

// Primitives returns the five permanently self-rooted tags.
func Primitives() []Tag {
	return []Tag{NumberTag, BooleanTag, StringTag, UndefinedTag, NullTag}
}

// ForObject returns the allocation-site tag for a heap object of kind k.
func ForObject(k heap.Kind, site Site) Tag {
	switch k {
	case heap.Array:
		return Tag{Kind: Array, Site: site}
	case heap.Function:
		return Tag{Kind: Function, Site: site}
	default:
		return Tag{Kind: Object, Site: site}
	}
}

// IsPrimitive reports whether t is a primitive or null tag.
func (t Tag) IsPrimitive() bool {
	return t.Kind <= String
}

// IsTracked reports whether t names an allocation site.
func (t Tag) IsTracked() bool {
	return t.Kind >= Object && t.Site != 0
}

// IsFunction reports whether t is a site-qualified function tag.
func (t Tag) IsFunction() bool {
	return t.Kind == Function && t.Site != 0
}

// IsArray reports whether t is a site-qualified array tag.
func (t Tag) IsArray() bool {
	return t.Kind == Array && t.Site != 0
}

// String renders the tag: "number", "object(null)", "array(12)", or
// "object"/"function" for references to untracked values.
func (t Tag) String() string {
	switch {
	case t.Kind == Null:
		return "object(null)"
	case t.IsPrimitive():
		return t.Kind.String()
	case t.Site == 0:
		return t.Kind.String()
	default:
		return t.Kind.String() + "(" + t.Site.String() + ")"
	}
}

// MarshalText implements encoding.TextMarshaler so tags can key YAML/JSON maps.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ErrMalformedTag is returned by Parse for unrecognized tag text.
var ErrMalformedTag = errors.New("typetag: malformed tag")

// Parse is the inverse of Tag.String.
func Parse(s string) (Tag, error) {
	if s == "object(null)" {
		return NullTag, nil
	}
	name, rest, qualified := strings.Cut(s, "(")
	kind, ok := kindByName(name)
	if !ok {
		return Tag{}, fmt.Errorf("%w: %q", ErrMalformedTag, s)
	}
	if !qualified {
		if kind == Null {
			return Tag{}, fmt.Errorf("%w: %q", ErrMalformedTag, s)
		}
		return Tag{Kind: kind}, nil
	}
	if kind < Object || !strings.HasSuffix(rest, ")") {
		return Tag{}, fmt.Errorf("%w: %q", ErrMalformedTag, s)
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(rest, ")"), 10, 32)
	if err != nil || n == 0 {
		return Tag{}, fmt.Errorf("%w: %q", ErrMalformedTag, s)
	}
	return Tag{Kind: kind, Site: Site(n)}, nil
}

func kindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Compare is the total order on tags used for deterministic iteration and
// tie-breaking: kind name first, then site.
func Compare(a, b Tag) int {
	if c := strings.Compare(a.Kind.String(), b.Kind.String()); c != 0 {
		return c
	}
	switch {
	case a.Site < b.Site:
		return -1
	case a.Site > b.Site:
		return 1
	default:
		return 0
	}
}

// Less reports whether a orders before b.
func Less(a, b Tag) bool {
	return Compare(a, b) < 0
}

// Resolver maps heap identities to the tags attached at allocation.
type Resolver interface {
	TagOf(id heap.ID) (Tag, bool)
}

// Of returns the observed type of v: its attached tag when v references a
// tracked object, the typeof-style fallback ("object"/"function") for
// untracked references, and the fixed tag for primitives.
func Of(v heap.Value, h *heap.Heap, r Resolver) Tag {
	switch v.Kind {
	case heap.ValUndefined:
		return UndefinedTag
	case heap.ValNull:
		return NullTag
	case heap.ValBool:
		return BooleanTag
	case heap.ValNumber:
		return NumberTag
	case heap.ValString:
		return StringTag
	}
	if tag, ok := r.TagOf(v.Ref); ok {
		return tag
	}
	if obj := h.Lookup(v.Ref); obj != nil && obj.Kind == heap.Function {
		return Tag{Kind: Function}
	}
	return Tag{Kind: Object}
}
