// Package trace reads and writes execution traces in JSON lines format.
//
// A trace starts with a header record and holds one record per line, each
// discriminated by its "ev" field:
//
//	{"ev":"header","format":"shapecheck-trace","version":"v1.0.0"}
//	{"ev":"loc","site":10,"loc":"main.js:3:9"}
//	{"ev":"object","object":{"id":1,"kind":"object","props":[{"name":"x","value":{"k":"number","n":1}}]}}
//	{"ev":"alloc","site":10,"value":{"k":"ref","id":1}}
//	{"ev":"write","site":12,"owner":{"k":"ref","id":1},"field":"x","value":{"k":"string","s":"a"}}
//	{"ev":"end"}
//
// Replay streams a trace into a Sink and collects the site locations.
package trace

import (
	"fmt"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// Record kinds.
const (
	EvHeader = "header"
	EvLoc    = "loc"
	EvObject = "object"
	EvAlloc  = "alloc"
	EvRead   = "read"
	EvWrite  = "write"
	EvEnter  = "enter"
	EvExit   = "exit"
	EvEnd    = "end"
)

// Event is one trace record. Which fields are set depends on Ev.
type Event struct {
	Ev string `json:"ev"`

	// header
	Format  string `json:"format,omitempty"`
	Version string `json:"version,omitempty"`

	// loc, alloc, read, write, enter, exit
	Site typetag.Site `json:"site,omitempty"`
	Loc  string       `json:"loc,omitempty"`

	// object
	Object *Object `json:"object,omitempty"`

	// alloc, read, write
	Owner *Value `json:"owner,omitempty"`
	Field string `json:"field,omitempty"`
	Value *Value `json:"value,omitempty"`

	// enter, exit
	Callee   *Value  `json:"callee,omitempty"`
	Receiver *Value  `json:"receiver,omitempty"`
	Args     []Value `json:"args,omitempty"`
	Return   *Value  `json:"return,omitempty"`
	Ctor     bool    `json:"ctor,omitempty"`
}

// Value is the wire form of heap.Value.
type Value struct {
	K  string  `json:"k"`
	N  float64 `json:"n,omitempty"`
	S  string  `json:"s,omitempty"`
	B  bool    `json:"b,omitempty"`
	ID heap.ID `json:"id,omitempty"`
}

// Wire names of value kinds.
const (
	KindNumber    = "number"
	KindString    = "string"
	KindBool      = "bool"
	KindNull      = "null"
	KindUndefined = "undefined"
	KindRef       = "ref"
)

// Heap converts v to a heap.Value.
func (v *Value) Heap() (heap.Value, error) {
	if v == nil {
		return heap.Undefined(), nil
	}
	switch v.K {
	case KindNumber:
		return heap.Number(v.N), nil
	case KindString:
		return heap.Str(v.S), nil
	case KindBool:
		return heap.Bool(v.B), nil
	case KindNull:
		return heap.Null(), nil
	case KindUndefined, "":
		return heap.Undefined(), nil
	case KindRef:
		if v.ID == 0 {
			return heap.Value{}, fmt.Errorf("reference without id")
		}
		return heap.Ref(v.ID), nil
	default:
		return heap.Value{}, fmt.Errorf("unknown value kind %q", v.K)
	}
}

// FromHeap converts a heap.Value to its wire form.
func FromHeap(hv heap.Value) *Value {
	switch hv.Kind {
	case heap.ValNumber:
		return &Value{K: KindNumber, N: hv.Num}
	case heap.ValString:
		return &Value{K: KindString, S: hv.Str}
	case heap.ValBool:
		return &Value{K: KindBool, B: hv.Bool}
	case heap.ValNull:
		return &Value{K: KindNull}
	case heap.ValRef:
		return &Value{K: KindRef, ID: hv.Ref}
	default:
		return &Value{K: KindUndefined}
	}
}

// Prop is one own property of a declared object.
type Prop struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Object declares a heap object.
type Object struct {
	ID          heap.ID `json:"id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name,omitempty"`
	Proto       heap.ID `json:"proto,omitempty"`
	Constructor heap.ID `json:"constructor,omitempty"`
	Prototype   heap.ID `json:"prototype,omitempty"`
	Length      int64   `json:"length,omitempty"`
	Opaque      bool    `json:"opaque,omitempty"`
	Props       []Prop  `json:"props,omitempty"`
}

// Heap builds the mirrored heap object.
func (o *Object) Heap() (*heap.Object, error) {
	var kind heap.Kind
	switch o.Kind {
	case "object", "":
		kind = heap.Plain
	case "array":
		kind = heap.Array
	case "function":
		kind = heap.Function
	default:
		return nil, fmt.Errorf("unknown object kind %q", o.Kind)
	}
	obj := heap.NewObject(o.ID, kind)
	obj.Name = o.Name
	obj.Proto = o.Proto
	obj.Constructor = o.Constructor
	obj.Prototype = o.Prototype
	for _, p := range o.Props {
		v, err := p.Value.Heap()
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		obj.Set(p.Name, v)
	}
	if o.Length > obj.Length() {
		obj.SetLength(o.Length)
	}
	obj.Opaque = o.Opaque
	return obj, nil
}

// Sink consumes decoded events.
type Sink interface {
	Dispatch(ev *Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev *Event) error

// Dispatch calls f(ev).
func (f SinkFunc) Dispatch(ev *Event) error { return f(ev) }
