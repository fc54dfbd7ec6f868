package heap

import (
	"cmp"
	"errors"
	"slices"
)

// ErrEnumeration is returned by Keys for objects whose properties cannot be
// enumerated (host objects, revoked proxies and similar).
var ErrEnumeration = errors.New("heap: property enumeration failed")

// Kind is the allocation kind of a heap object.
type Kind uint8

const (
	// Plain is an ordinary object.
	Plain Kind = iota
	// Array is an array object.
	Array
	// Function is a callable object.
	Function
)

// String returns the kind name used in type tags.
func (k Kind) String() string {
	switch k {
	case Plain:
		return "object"
	case Array:
		return "array"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// Object is the mirror of one heap-allocated value.
//
// Identity fields (Proto, Constructor, Prototype) are opaque IDs. They are
// only ever compared for equality, never dereferenced structurally.
type Object struct {
	// ID is the stable handle the harness issued for this value.
	ID ID

	// Kind is the allocation kind.
	Kind Kind

	// Name is the function name for functions, or the constructor name
	// recorded by the harness for other objects. May be empty.
	Name string

	// Proto is the identity of the object's prototype (0 for none).
	Proto ID

	// Constructor is the identity of the object's constructor (0 for none).
	Constructor ID

	// Prototype is F.prototype for functions (0 for none). InstanceOf walks
	// Proto chains looking for this identity.
	Prototype ID

	// Opaque marks objects whose property enumeration fails.
	Opaque bool

	keys   []string
	props  map[string]Value
	length int64
}

// NewObject creates an empty object with the given identity and kind.
func NewObject(id ID, kind Kind) *Object {
	return &Object{
		ID:    id,
		Kind:  kind,
		props: make(map[string]Value),
	}
}

// Set writes an own property, appending it to the enumeration order when it
// is new. Index writes on arrays grow Length.
func (o *Object) Set(name string, v Value) {
	if o.props == nil {
		o.props = make(map[string]Value)
	}
	if _, ok := o.props[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.props[name] = v
	if o.Kind == Array {
		if idx, ok := ArrayIndex(name); ok && idx >= o.length {
			o.length = idx + 1
		}
	}
}

// Get returns an own property.
func (o *Object) Get(name string) (Value, bool) {
	v, ok := o.props[name]
	return v, ok
}

// HasOwn reports whether name is an own property.
func (o *Object) HasOwn(name string) bool {
	_, ok := o.props[name]
	return ok
}

// Delete removes an own property. Array length is left unchanged, leaving a
// hole exactly as the traced language does.
func (o *Object) Delete(name string) {
	if _, ok := o.props[name]; !ok {
		return
	}
	delete(o.props, name)
	if i := slices.Index(o.keys, name); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
}

// Length returns the array length (one past the highest index written).
// It is 0 for non-arrays.
func (o *Object) Length() int64 {
	return o.length
}

// SetLength sets the array length, e.g. for `new Array(n)` allocations.
// Lengths outside [0, MaxArrayIndex+1] are ignored.
func (o *Object) SetLength(n int64) {
	if o.Kind == Array && n >= 0 && n <= MaxArrayIndex+1 {
		o.length = n
	}
}

// Elements calls fn for every own element of the array (an own property
// named by an index below Length) in insertion order, until fn returns
// false. Holes are not visited, so the cost is the number of own
// properties, not the length.
func (o *Object) Elements(fn func(idx int64, v Value) bool) {
	for _, k := range o.keys {
		idx, ok := ArrayIndex(k)
		if !ok || idx >= o.length {
			continue
		}
		if !fn(idx, o.props[k]) {
			return
		}
	}
}

// Keys returns the own enumerable property names in enumeration order:
// array index names ascending, then all other names in insertion order.
//
// Returns ErrEnumeration for opaque objects.
func (o *Object) Keys() ([]string, error) {
	if o.Opaque {
		return nil, ErrEnumeration
	}
	var indices []string
	var names []string
	for _, k := range o.keys {
		if _, ok := ArrayIndex(k); ok {
			indices = append(indices, k)
		} else {
			names = append(names, k)
		}
	}
	slices.SortFunc(indices, func(a, b string) int {
		x, _ := ArrayIndex(a)
		y, _ := ArrayIndex(b)
		return cmp.Compare(x, y)
	})
	return append(indices, names...), nil
}
