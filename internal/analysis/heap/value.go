package heap

import (
	"strconv"
)

// ID identifies a heap object. The zero ID means "no object".
type ID uint64

// ValueKind discriminates the Value variants.
type ValueKind uint8

const (
	// ValUndefined is the undefined value.
	ValUndefined ValueKind = iota
	// ValNull is the null value.
	ValNull
	// ValBool is a boolean primitive.
	ValBool
	// ValNumber is a number primitive.
	ValNumber
	// ValString is a string primitive.
	ValString
	// ValRef is a reference to a heap object.
	ValRef
)

// String returns the typeof-style name of the kind.
func (k ValueKind) String() string {
	switch k {
	case ValUndefined:
		return "undefined"
	case ValNull:
		return "null"
	case ValBool:
		return "boolean"
	case ValNumber:
		return "number"
	case ValString:
		return "string"
	case ValRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Value is a traced program value: a primitive carried by value, or a
// reference to a heap object carried by ID.
//
// The zero Value is undefined.
type Value struct {
	Kind ValueKind
	Bool bool
	Num  float64
	Str  string
	Ref  ID
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{Kind: ValUndefined} }

// Null returns the null value.
func Null() Value { return Value{Kind: ValNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: ValBool, Bool: b} }

// Number returns a number value.
func Number(n float64) Value { return Value{Kind: ValNumber, Num: n} }

// Str returns a string value.
func Str(s string) Value { return Value{Kind: ValString, Str: s} }

// Ref returns a reference to the object with the given ID.
func Ref(id ID) Value { return Value{Kind: ValRef, Ref: id} }

// IsRef reports whether v references a heap object.
func (v Value) IsRef() bool { return v.Kind == ValRef && v.Ref != 0 }

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool { return v.Kind == ValUndefined }

// String renders the value for logs and test failures.
func (v Value) String() string {
	switch v.Kind {
	case ValUndefined:
		return "undefined"
	case ValNull:
		return "null"
	case ValBool:
		return strconv.FormatBool(v.Bool)
	case ValNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValString:
		return strconv.Quote(v.Str)
	case ValRef:
		return "#" + strconv.FormatUint(uint64(v.Ref), 10)
	default:
		return "?"
	}
}

const (
	// maxSafeInteger is the largest integer a double represents exactly.
	maxSafeInteger = 1<<53 - 1

	// MaxArrayIndex is the largest property name that is an array element.
	// Larger integer names are ordinary properties and leave length alone.
	MaxArrayIndex = 1<<32 - 2
)

// IsIndex reports whether name is a canonical integer property name
// ("0", "17", "-3") and returns its numeric value.
//
// Non-canonical spellings such as "01" or "+1" are ordinary names, matching
// how dynamic languages distinguish array indices from other keys. Integers
// beyond the exactly representable range are ordinary names too.
func IsIndex(name string) (int, bool) {
	n, err := strconv.ParseInt(name, 10, 64)
	if err != nil || n > maxSafeInteger || n < -maxSafeInteger {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != name || int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

// ArrayIndex reports whether name is an array element name, an index in
// [0, MaxArrayIndex]. Only such names grow an array's length.
func ArrayIndex(name string) (int64, bool) {
	n, ok := IsIndex(name)
	if !ok || n < 0 || int64(n) > MaxArrayIndex {
		return 0, false
	}
	return int64(n), true
}
