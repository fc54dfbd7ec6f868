package typeequiv

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// WarningKind discriminates warnings.
type WarningKind uint8

const (
	// InconsistentType flags a field observed with structurally unrelated types.
	InconsistentType WarningKind = iota + 1
	// UndefinedField flags a field literally named "undefined", which
	// usually comes from indexing with an undefined key.
	UndefinedField
)

// String returns the kind name.
func (k WarningKind) String() string {
	switch k {
	case InconsistentType:
		return "inconsistent-type"
	case UndefinedField:
		return "undefined-field"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *WarningKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "inconsistent-type":
		*k = InconsistentType
	case "undefined-field":
		*k = UndefinedField
	default:
		return fmt.Errorf("unknown warning kind %q", b)
	}
	return nil
}

// ObservedType is one class observed at a field, represented by its
// smallest member tag, with the union of the sites of all members seen there.
type ObservedType struct {
	Type      typetag.Tag    `json:"type" yaml:"type"`
	Locations []typetag.Site `json:"locations" yaml:"locations"`
}

// Warning is one finding of the consistency scan.
type Warning struct {
	ID    int         `json:"id" yaml:"id"`
	Kind  WarningKind `json:"kind" yaml:"kind"`
	Owner typetag.Tag `json:"owner" yaml:"owner"`

	// Field is the inconsistent field or call slot. Empty for UndefinedField.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`

	// Observed lists every distinct class seen at Field (InconsistentType).
	Observed []ObservedType `json:"observed,omitempty" yaml:"observed,omitempty"`

	// Locations lists where the undefined field was accessed (UndefinedField).
	Locations []typetag.Site `json:"locations,omitempty" yaml:"locations,omitempty"`

	// Diff tells the observed types apart. Nil when not computed.
	Diff *TypeDiff `json:"diff,omitempty" yaml:"diff,omitempty"`

	// Highlighted are the tags a visualizer should emphasize.
	Highlighted []typetag.Tag `json:"highlighted" yaml:"highlighted"`
}

// String renders a one-line summary with raw site ids.
func (w *Warning) String() string {
	switch w.Kind {
	case UndefinedField:
		return fmt.Sprintf("warning %d: %s has field \"undefined\" (at %s)", w.ID, w.Owner, joinSites(w.Locations))
	default:
		parts := make([]string, 0, len(w.Observed))
		for _, o := range w.Observed {
			parts = append(parts, fmt.Sprintf("%s at %s", o.Type, joinSites(o.Locations)))
		}
		return fmt.Sprintf("warning %d: %s.%s has inconsistent types: %s", w.ID, w.Owner, w.Field, strings.Join(parts, "; "))
	}
}

func joinSites(sites []typetag.Site) string {
	parts := make([]string, len(sites))
	for i, s := range sites {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// TypeDiff splits the reachable expressions of a warning's observed types.
//
// An expression is a path of field names from the observed value, e.g.
// ".next.value". The empty expression is the value itself. Each expression
// maps to the types reachable at that path.
type TypeDiff struct {
	// Common holds expressions with identical types in every observed type.
	Common map[string][]typetag.Tag `json:"common" yaml:"common"`

	// Diff holds every other expression with all types seen for it.
	Diff map[string][]typetag.Tag `json:"diff" yaml:"diff"`
}

// DiffExpressions returns the distinguishing expressions in sorted order.
func (d *TypeDiff) DiffExpressions() []string {
	exprs := make([]string, 0, len(d.Diff))
	for e := range d.Diff {
		exprs = append(exprs, e)
	}
	slices.Sort(exprs)
	return exprs
}
