// Package shadow stores per-object analysis metadata outside the traced heap.
//
// Every tracked heap object gets one shadow record holding the analysis state
// that must follow the object's identity for its whole lifetime:
//   - Tag: the allocation-site type tag assigned by the type recorder
//   - Instance: the (sequence, creation site) instance id used by the shape
//     tracker to count distinct objects per signature
//   - Sig: the cached shape signature
//   - Array: the element-kind classification of arrays
//
// # Design
//
// Records live in an arena slice and are addressed by Handle. Lookups go
// through a single map from heap.ID to Handle, so attaching metadata never
// mutates the mirrored heap object and records are never copied once created.
//
// Primitives never receive shadows. A record is created either by Attach
// (tag known) or by Ensure (metadata needed before, or without, a tag).
//
// # Usage
//
//	s := shadow.NewStore()
//	h, err := s.Attach(obj.ID, typetag.ForObject(obj.Kind, site))
//	if err != nil {
//	    // object was already tagged
//	}
//	rec := s.Get(h)
//	rec.Instance = shadow.InstanceID{Seq: 1, Site: site}
//
// # Thread Safety
//
// A Store is owned by one analysis session and is NOT safe for concurrent use.
// The analysis core processes trace events strictly in order.
package shadow
