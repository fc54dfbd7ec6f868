// Package heap implements the heap mirror of a traced program.
//
// The analyses never see the traced program's real values. Instead the
// harness declares every heap-allocated value it observes as an Object in a
// Heap and refers to it by a stable ID. Primitive values travel by value as
// Value variants.
//
// # Overview
//
// A Heap is a plain identity map from ID to *Object. Each Object records:
//   - Kind: plain object, array or function
//   - Own enumerable properties in insertion order
//   - Proto and Constructor identities (opaque IDs, compared by equality)
//   - Prototype: for functions, the identity of F.prototype (used by InstanceOf)
//
// Objects flagged Opaque model host values whose property enumeration fails;
// Keys returns ErrEnumeration for them so callers can degrade gracefully.
//
// # Usage
//
//	h := heap.New()
//	point := heap.NewObject(1, heap.Plain)
//	point.Set("x", heap.Number(1))
//	if err := h.Add(point); err != nil {
//	    // ID reused
//	}
//
// # Thread Safety
//
// Heap and Object are NOT safe for concurrent use. The analysis core is a
// sequential fold over the event stream and owns the heap exclusively.
package heap
