// Package shape tracks approximate hidden classes to find JIT-unfriendly code.
//
// JIT compilers specialize property access on an object's hidden class: its
// property layout, prototype and constructor. Sites that see many hidden
// classes (polymorphic sites) and a few array and initialization patterns
// defeat that specialization. The Tracker watches the trace for:
//
//   - Polymorphic sites: property reads and constructor calls whose receiver
//     signatures differ between executions
//   - Reads of array elements that were never initialized or were deleted
//   - Arrays switching from numeric to mixed element types
//   - Array writes past the current length (incontiguous writes)
//   - Properties added to an object outside its constructor
//
// # Signatures
//
// A signature is the ordered list of non-index own property names (interned
// by package layout) plus the prototype and constructor identities. It is
// cached on the object's shadow record and recomputed only after a write to
// that object, so hot read paths do not enumerate properties.
//
// # Construction context
//
// Call entry and exit maintain a stack of frames. An object is "being
// constructed" when the top frame is a constructor call and the object is an
// instance of the frame's function. Fields added then are initialization;
// fields added at any other time are counted.
//
// # Failure handling
//
// Every event handler recovers from internal panics and logs them, and a
// failed property enumeration yields layout.Unsignaturable. One malformed
// object never aborts analysis of the rest of the trace.
package shape
