package typeobs

import (
	"log/slog"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
	"github.com/kolkov/shapecheck/internal/analysis/shadow"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// OverflowSlot is the synthetic field that collects every array index above
// the configured bound.
const OverflowSlot = "[overflow]"

// DefaultIndexBound is the highest array index recorded as its own field.
const DefaultIndexBound = 10

// Call-signature slot names.
const (
	SlotThis   = "this"
	SlotReturn = "return"
)

// ArgSlot returns the slot name of the i-th (0-based) argument: "arg1", ...
func ArgSlot(i int) string {
	return "arg" + strconv.Itoa(i+1)
}

// Options configures a Recorder.
type Options struct {
	// IndexBound is the highest array index kept as a separate field.
	// Larger indices are coalesced into OverflowSlot. Zero means
	// DefaultIndexBound.
	IndexBound int

	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// Names is an insertion-ordered registry of display names per tag.
type Names = orderedmap.OrderedMap[typetag.Tag, string]

// Observations is the read-only result of trace consumption.
type Observations struct {
	// Fields holds field observations per object, array and function tag.
	Fields *Table

	// Signatures holds "this", "return" and "argN" observations per
	// called function tag.
	Signatures *Table

	// TypeNames holds the constructor name of each object/array tag.
	TypeNames *Names

	// FunctionNames holds the own name of each function tag.
	FunctionNames *Names
}

// NewObservations creates empty observation tables.
func NewObservations() *Observations {
	return &Observations{
		Fields:        NewTable(),
		Signatures:    NewTable(),
		TypeNames:     orderedmap.New[typetag.Tag, string](),
		FunctionNames: orderedmap.New[typetag.Tag, string](),
	}
}

// FieldTypes returns the structure of tag: the call signature for function
// tags, the field map otherwise. Primitives and uncalled functions have none.
func (o *Observations) FieldTypes(tag typetag.Tag) (FieldMap, bool) {
	if tag.IsFunction() {
		return o.Signatures.Fields(tag)
	}
	return o.Fields.Fields(tag)
}

// Name returns the registered display name of tag.
func (o *Observations) Name(tag typetag.Tag) string {
	names := o.TypeNames
	if tag.Kind == typetag.Function {
		names = o.FunctionNames
	}
	name, _ := names.Get(tag)
	return name
}

// Recorder turns trace events into field and call-signature observations.
//
// Thread Safety: NOT safe for concurrent use.
type Recorder struct {
	heap   *heap.Heap
	store  *shadow.Store
	bound  int
	logger *slog.Logger
	obs    *Observations
}

// NewRecorder creates a recorder that tags objects in store and reads
// object contents from h.
func NewRecorder(h *heap.Heap, store *shadow.Store, opts Options) *Recorder {
	if opts.IndexBound <= 0 {
		opts.IndexBound = DefaultIndexBound
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{
		heap:   h,
		store:  store,
		bound:  opts.IndexBound,
		logger: opts.Logger,
		obs:    NewObservations(),
	}
}

// OnAllocation tags a newly created object, array or function with its
// allocation site and records its own properties as observed at site.
//
// Primitives, already tagged values and functions named "eval" are ignored.
func (r *Recorder) OnAllocation(site typetag.Site, v heap.Value) {
	obj := r.heap.Deref(v)
	if obj == nil {
		return
	}
	if _, tracked := r.store.TagOf(obj.ID); tracked {
		return
	}
	if obj.Kind == heap.Function && obj.Name == "eval" {
		return
	}
	tag := typetag.ForObject(obj.Kind, site)
	if _, err := r.store.Attach(obj.ID, tag); err != nil {
		r.logger.Debug("attach failed", "object", obj.ID, "err", err)
		return
	}
	r.register(tag, obj)
	r.obs.Fields.Ensure(tag)

	keys, err := obj.Keys()
	if err != nil {
		r.logger.Debug("initial properties unavailable", "tag", tag, "err", err)
		return
	}
	for _, key := range keys {
		val, _ := obj.Get(key)
		r.record(tag, key, val, site)
	}
}

// OnFieldWrite records the type of a value stored into a tracked owner.
func (r *Recorder) OnFieldWrite(site typetag.Site, owner heap.Value, field string, v heap.Value) {
	r.observe(site, owner, field, v)
}

// OnFieldRead records the type of a value loaded from a tracked owner.
// Reads yielding undefined are not observations.
func (r *Recorder) OnFieldRead(site typetag.Site, owner heap.Value, field string, v heap.Value) {
	if v.IsUndefined() {
		return
	}
	r.observe(site, owner, field, v)
}

// OnCall records the receiver, return and argument types of a completed call
// to a tracked function. The result of a constructor call is allocated at
// site first if nothing tagged it yet.
func (r *Recorder) OnCall(site typetag.Site, callee, receiver heap.Value, args []heap.Value, ret heap.Value, isConstructor bool) {
	if isConstructor {
		r.OnAllocation(site, ret)
	}
	if !callee.IsRef() {
		return
	}
	tag, ok := r.store.TagOf(callee.Ref)
	if !ok || !tag.IsFunction() {
		return
	}
	if fn := r.heap.Lookup(callee.Ref); fn != nil {
		r.register(tag, fn)
	}
	sig := r.obs.Signatures
	sig.Record(tag, SlotReturn, r.typeOf(ret), site)
	sig.Record(tag, SlotThis, r.typeOf(receiver), site)
	for i, arg := range args {
		sig.Record(tag, ArgSlot(i), r.typeOf(arg), site)
	}
}

// Observations returns the accumulated tables. They must not be modified
// once analysis starts.
func (r *Recorder) Observations() *Observations {
	return r.obs
}

func (r *Recorder) observe(site typetag.Site, owner heap.Value, field string, v heap.Value) {
	if !owner.IsRef() {
		return
	}
	tag, ok := r.store.TagOf(owner.Ref)
	if !ok {
		return
	}
	r.record(tag, field, v, site)
}

func (r *Recorder) record(owner typetag.Tag, field string, v heap.Value, site typetag.Site) {
	if owner.Kind == typetag.Array {
		if idx, ok := heap.IsIndex(field); ok && idx > r.bound {
			field = OverflowSlot
		}
	}
	r.obs.Fields.Record(owner, field, r.typeOf(v), site)
}

func (r *Recorder) typeOf(v heap.Value) typetag.Tag {
	return typetag.Of(v, r.heap, r.store)
}

// register stores the display name of tag: a function's own name, or the
// name of an object's constructor.
func (r *Recorder) register(tag typetag.Tag, obj *heap.Object) {
	if tag.Kind == typetag.Function {
		r.obs.FunctionNames.Set(tag, obj.Name)
		return
	}
	name := ""
	if ctor := r.heap.Lookup(obj.Constructor); ctor != nil {
		name = ctor.Name
	}
	r.obs.TypeNames.Set(tag, name)
}
