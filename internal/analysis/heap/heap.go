package heap

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateObject is returned when an ID is declared twice.
	ErrDuplicateObject = errors.New("heap: object already declared")

	// ErrInvalidID is returned when an object is declared with the zero ID.
	ErrInvalidID = errors.New("heap: invalid object id")
)

// Heap is the identity map of all declared objects.
type Heap struct {
	objects map[ID]*Object
}

// New creates an empty heap.
func New() *Heap {
	return &Heap{objects: make(map[ID]*Object)}
}

// Add declares an object. Each ID may be declared once.
func (h *Heap) Add(obj *Object) error {
	if obj == nil || obj.ID == 0 {
		return ErrInvalidID
	}
	if _, ok := h.objects[obj.ID]; ok {
		return fmt.Errorf("%w: #%d", ErrDuplicateObject, obj.ID)
	}
	h.objects[obj.ID] = obj
	return nil
}

// Lookup returns the object with the given ID, or nil.
func (h *Heap) Lookup(id ID) *Object {
	if id == 0 {
		return nil
	}
	return h.objects[id]
}

// Deref returns the object v references, or nil for primitives and
// references to undeclared objects.
func (h *Heap) Deref(v Value) *Object {
	if !v.IsRef() {
		return nil
	}
	return h.objects[v.Ref]
}

// InstanceOf reports whether fn.Prototype occurs on obj's prototype chain.
//
// The walk is bounded by the number of declared objects so a malformed
// (cyclic) chain cannot loop forever.
func (h *Heap) InstanceOf(obj, fn ID) bool {
	f := h.Lookup(fn)
	o := h.Lookup(obj)
	if f == nil || o == nil || f.Kind != Function || f.Prototype == 0 {
		return false
	}
	p := o.Proto
	for steps := 0; p != 0 && steps <= len(h.objects); steps++ {
		if p == f.Prototype {
			return true
		}
		next := h.Lookup(p)
		if next == nil {
			return false
		}
		p = next.Proto
	}
	return false
}

// Len returns the number of declared objects.
func (h *Heap) Len() int {
	return len(h.objects)
}
