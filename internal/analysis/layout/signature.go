package layout

import "github.com/kolkov/shapecheck/internal/analysis/heap"

// Signature approximates a JIT hidden class: property layout plus prototype
// and constructor identities.
//
// Two signatures are equal iff all fields are equal. Proto and Constructor
// are opaque identities and are never compared structurally.
type Signature struct {
	Layout      ID
	Proto       heap.ID
	Constructor heap.ID

	// Invalid marks the sentinel produced when a signature could not be
	// computed. All invalid signatures compare equal to each other.
	Invalid bool
}

// Unsignaturable is the sentinel for objects whose layout could not be read.
var Unsignaturable = Signature{Invalid: true}

// Equal reports whether two signatures describe the same hidden class.
func (s Signature) Equal(o Signature) bool {
	return s == o
}
