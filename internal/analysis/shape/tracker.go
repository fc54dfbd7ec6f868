package shape

import (
	"fmt"
	"log/slog"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
	"github.com/kolkov/shapecheck/internal/analysis/layout"
	"github.com/kolkov/shapecheck/internal/analysis/shadow"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// progressInterval is how many field writes pass between progress logs.
const progressInterval = 50000

// Options configures a Tracker.
type Options struct {
	// CacheSignatures keeps signatures on shadow records between writes.
	// When false every lookup enumerates the object again.
	CacheSignatures bool

	// Logger receives recovered failures and progress. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{CacheSignatures: true}
}

// frame is one entry of the construction-context stack.
type frame struct {
	callee      heap.ID
	constructor bool
	site        typetag.Site
}

// Tracker consumes trace events and accumulates polymorphism records and
// counters.
//
// Thread Safety: NOT safe for concurrent use. Events must be delivered in
// trace order from a single goroutine.
type Tracker struct {
	heap   *heap.Heap
	store  *shadow.Store
	depot  *layout.Depot
	cache  bool
	logger *slog.Logger

	stack     []frame
	records   map[typetag.Site]*Record
	order     []typetag.Site
	counters  Counters
	instances uint64
	stats     Stats
}

// NewTracker creates a tracker reading object state from h and keeping
// per-object metadata in store.
func NewTracker(h *heap.Heap, store *shadow.Store, opts Options) *Tracker {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		heap:     h,
		store:    store,
		depot:    layout.NewDepot(),
		cache:    opts.CacheSignatures,
		logger:   opts.Logger,
		stack:    []frame{{}}, // bottom frame: top-level code
		records:  make(map[typetag.Site]*Record),
		counters: newCounters(),
	}
}

// OnAllocation assigns an instance id to a newly created object.
func (t *Tracker) OnAllocation(site typetag.Site, v heap.Value) {
	defer t.guard("allocation", site)
	obj := t.heap.Deref(v)
	if obj == nil {
		return
	}
	rec := t.store.Get(t.store.Ensure(obj.ID))
	if rec.Instance.IsZero() {
		rec.Instance = t.nextInstance(site)
	}
}

// OnFieldRead checks a property read of base.field.
func (t *Tracker) OnFieldRead(site typetag.Site, base heap.Value, field string) {
	defer t.guard("field read", site)
	obj := t.heap.Deref(base)
	if obj == nil {
		return
	}
	t.syncInstance(obj)
	t.checkUninitializedRead(obj, field, site)
	t.checkPolymorphic(obj, site)
}

// OnFieldWrite checks a property write to base.field before it happens.
func (t *Tracker) OnFieldWrite(site typetag.Site, base heap.Value, field string, v heap.Value) {
	defer t.guard("field write", site)
	t.stats.FieldWrites++
	if t.stats.FieldWrites%progressInterval == 0 {
		t.logger.Debug("field writes processed", "count", t.stats.FieldWrites)
	}
	obj := t.heap.Deref(base)
	if obj == nil {
		return
	}
	t.syncInstance(obj)
	if idx, ok := heap.IsIndex(field); ok && obj.Kind == heap.Array {
		t.checkArrayNumeric(obj, v, site)
		t.checkOutsideBound(obj, idx, site)
		return
	}
	t.checkFieldOutsideConstructor(obj, field, site)
}

// OnFieldWritten refreshes base's cached signature after a write.
func (t *Tracker) OnFieldWritten(site typetag.Site, base heap.Value) {
	defer t.guard("field written", site)
	obj := t.heap.Deref(base)
	if obj == nil || !t.cache || obj.Kind == heap.Array {
		return
	}
	rec := t.store.Get(t.store.Ensure(obj.ID))
	rec.Sig = t.generate(obj)
	rec.HasSig = true
}

// OnCallEnter pushes a construction-context frame.
func (t *Tracker) OnCallEnter(site typetag.Site, callee heap.Value, isConstructor bool) {
	defer t.guard("call enter", site)
	var id heap.ID
	if callee.IsRef() {
		id = callee.Ref
	}
	t.stack = append(t.stack, frame{callee: id, constructor: isConstructor, site: site})
}

// OnCallExit checks a constructor result and pops the matching frame.
func (t *Tracker) OnCallExit(site typetag.Site, ret heap.Value, isConstructor bool) {
	defer t.guard("call exit", site)
	defer t.pop()
	obj := t.heap.Deref(ret)
	if obj == nil {
		return
	}
	t.syncInstance(obj)
	if isConstructor {
		t.checkPolymorphic(obj, site)
	}
}

// Records returns the polymorphism records in order of first observation.
func (t *Tracker) Records() []*Record {
	out := make([]*Record, len(t.order))
	for i, site := range t.order {
		out[i] = t.records[site]
	}
	return out
}

// Counters returns the counter tables.
func (t *Tracker) Counters() Counters {
	return t.counters
}

// Stats returns bookkeeping totals.
func (t *Tracker) Stats() Stats {
	return t.stats
}

// Depot returns the layout depot that interned the recorded signatures.
func (t *Tracker) Depot() *layout.Depot {
	return t.depot
}

// Depth returns the current construction-stack depth, excluding the bottom
// frame.
func (t *Tracker) Depth() int {
	return len(t.stack) - 1
}

func (t *Tracker) pop() {
	if len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// guard recovers a panic raised while handling one event.
func (t *Tracker) guard(event string, site typetag.Site) {
	if r := recover(); r != nil {
		t.stats.RecoveredPanics++
		t.logger.Error("shape tracker recovered", "event", event, "site", site, "panic", fmt.Sprint(r))
	}
}

func (t *Tracker) nextInstance(site typetag.Site) shadow.InstanceID {
	t.instances++
	return shadow.InstanceID{Seq: t.instances, Site: site}
}

// isConstructing reports whether obj is being built by the innermost frame.
func (t *Tracker) isConstructing(obj *heap.Object) bool {
	top := t.stack[len(t.stack)-1]
	return top.constructor && t.heap.InstanceOf(obj.ID, top.callee)
}

// syncInstance gives an object under construction the id of its
// construction site.
func (t *Tracker) syncInstance(obj *heap.Object) {
	if !t.isConstructing(obj) {
		return
	}
	rec := t.store.Get(t.store.Ensure(obj.ID))
	if rec.Instance.IsZero() {
		rec.Instance = t.nextInstance(t.stack[len(t.stack)-1].site)
	}
}

// signature returns obj's signature, from the shadow cache when enabled.
func (t *Tracker) signature(obj *heap.Object) layout.Signature {
	t.stats.SignatureLookups++
	if !t.cache {
		return t.generate(obj)
	}
	rec := t.store.Get(t.store.Ensure(obj.ID))
	if !rec.HasSig {
		rec.Sig = t.generate(obj)
		rec.HasSig = true
	}
	return rec.Sig
}

// generate computes obj's signature from its current own properties.
func (t *Tracker) generate(obj *heap.Object) layout.Signature {
	t.stats.SignaturesGenerated++
	keys, err := obj.Keys()
	if err != nil {
		t.stats.Unsignaturable++
		t.logger.Warn("signature unavailable", "object", obj.ID, "err", err)
		return layout.Unsignaturable
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, isIndex := heap.IsIndex(k); !isIndex {
			names = append(names, k)
		}
	}
	return layout.Signature{
		Layout:      t.depot.Intern(names),
		Proto:       obj.Proto,
		Constructor: obj.Constructor,
	}
}

// checkPolymorphic records the signature of obj at site. Arrays are skipped.
func (t *Tracker) checkPolymorphic(obj *heap.Object, site typetag.Site) {
	if obj.Kind == heap.Array {
		return
	}
	sig := t.signature(obj)
	var instance shadow.InstanceID
	if rec, ok := t.store.Lookup(obj.ID); ok {
		instance = rec.Instance
	}
	r, ok := t.records[site]
	if !ok {
		r = &Record{Site: site}
		t.records[site] = r
		t.order = append(t.order, site)
	}
	r.observe(sig, instance)
}

// checkUninitializedRead counts reads of missing array elements.
func (t *Tracker) checkUninitializedRead(obj *heap.Object, field string, site typetag.Site) {
	if obj.Kind != heap.Array {
		return
	}
	if _, ok := heap.IsIndex(field); ok && !obj.HasOwn(field) {
		t.counters.UninitializedRead[site]++
	}
}

// checkArrayNumeric classifies an array on its first index write and counts
// the one-way switch from numeric to mixed contents.
func (t *Tracker) checkArrayNumeric(obj *heap.Object, v heap.Value, site typetag.Site) {
	rec := t.store.Get(t.store.Ensure(obj.ID))
	if rec.Array == shadow.ArrayUnclassified {
		rec.Array = shadow.ArrayNumeric
		obj.Elements(func(_ int64, elem heap.Value) bool {
			if !numericElement(elem) {
				rec.Array = shadow.ArrayNonNumeric
				return false
			}
			return true
		})
	}
	if rec.Array == shadow.ArrayNumeric && !numericElement(v) {
		t.counters.ArrayTypeSwitch[site]++
		rec.Array = shadow.ArrayNonNumeric
	}
}

func numericElement(v heap.Value) bool {
	return v.Kind == heap.ValNumber || v.Kind == heap.ValUndefined
}

// checkOutsideBound counts writes that leave a hole after the current end.
func (t *Tracker) checkOutsideBound(obj *heap.Object, idx int, site typetag.Site) {
	if obj.Length() < int64(idx) {
		t.counters.IncontiguousWrite[site]++
	}
}

// checkFieldOutsideConstructor counts new properties added to an object
// that is not under construction.
func (t *Tracker) checkFieldOutsideConstructor(obj *heap.Object, field string, site typetag.Site) {
	if obj.HasOwn(field) {
		return
	}
	if !t.isConstructing(obj) {
		t.counters.FieldOutsideConstructor[site]++
	}
}
