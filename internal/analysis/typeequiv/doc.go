// Package typeequiv finds structurally inconsistent field and call-signature
// types in recorded observations.
//
// # Overview
//
// Analysis runs in two steps over the tables produced by package typeobs.
//
// First, Equiv partitions all observed tags into structural equivalence
// classes. It starts with every tag in its own class and repeatedly merges
// two classes whose representatives have the same field names and, for every
// field, the same set of observed class roots. Merging only ever coarsens the
// partition, so the loop reaches a fixpoint after at most one pass per tag.
//
// Second, Analyze scans every class root. A field that holds values of two
// types from different classes is inconsistent unless one type is a
// structural subtype of the other, or both are functions and at least one
// was never called. Each inconsistent field yields one warning listing every
// distinct class observed there, and, for small warnings, a type diff: the
// reachable field expressions that tell the conflicting shapes apart.
//
// # Determinism
//
// Tags are visited in typetag order and warning ids start at 1 on every run,
// so analyzing the same observations twice gives identical results.
package typeequiv
