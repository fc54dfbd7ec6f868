package heap

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestIsIndex verifies canonical integer name detection.
func TestIsIndex(t *testing.T) {
	tests := []struct {
		name   string
		want   int64
		wantOK bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"-3", -3, true},
		{"01", 0, false},
		{"+1", 0, false},
		{"length", 0, false},
		{"", 0, false},
		{"1.5", 0, false},
		{"4294967295", 4294967295, true},
		{"9007199254740991", 9007199254740991, true},
		{"9007199254740992", 0, false},
		{"9223372036854775807", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IsIndex(tt.name)
			if ok != tt.wantOK || int64(got) != tt.want {
				t.Errorf("IsIndex(%q) = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestObjectKeys_EnumerationOrder verifies indices come first, then insertion order.
func TestObjectKeys_EnumerationOrder(t *testing.T) {
	o := NewObject(1, Plain)
	o.Set("b", Number(1))
	o.Set("2", Number(2))
	o.Set("a", Number(3))
	o.Set("0", Number(4))
	o.Set("b", Str("again")) // rewrite keeps position

	keys, err := o.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"0", "2", "b", "a"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	o.Delete("b")
	keys, _ = o.Keys()
	if diff := cmp.Diff([]string{"0", "2", "a"}, keys); diff != "" {
		t.Errorf("Keys() after Delete mismatch (-want +got):\n%s", diff)
	}
}

// TestObjectKeys_Opaque verifies opaque objects fail enumeration.
func TestObjectKeys_Opaque(t *testing.T) {
	o := NewObject(1, Plain)
	o.Opaque = true
	if _, err := o.Keys(); !errors.Is(err, ErrEnumeration) {
		t.Errorf("Keys() error = %v, want ErrEnumeration", err)
	}
}

// TestArrayLength verifies index writes grow the array length.
func TestArrayLength(t *testing.T) {
	a := NewObject(1, Array)
	for i, name := range []string{"0", "1", "5"} {
		a.Set(name, Number(float64(i)))
	}
	if a.Length() != 6 {
		t.Errorf("Length() = %d, want 6", a.Length())
	}
	a.Set("foo", Str("x"))
	if a.Length() != 6 {
		t.Errorf("Length() after named write = %d, want 6", a.Length())
	}
	a.Delete("5")
	if a.Length() != 6 {
		t.Errorf("Length() after Delete = %d, want 6 (holes keep length)", a.Length())
	}
}

// TestArrayIndex verifies the element name range.
func TestArrayIndex(t *testing.T) {
	tests := []struct {
		name   string
		want   int64
		wantOK bool
	}{
		{"0", 0, true},
		{"4294967294", MaxArrayIndex, true},
		{"4294967295", 0, false},
		{"-1", 0, false},
		{"9223372036854775807", 0, false},
		{"07", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ArrayIndex(tt.name)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ArrayIndex(%q) = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestArrayLength_Bounds verifies that only element names grow the length.
func TestArrayLength_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  int64
	}{
		{"largest element", "4294967294", MaxArrayIndex + 1},
		{"first non-element", "4294967295", 0},
		{"int64 max", "9223372036854775807", 0},
		{"negative", "-1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewObject(1, Array)
			a.Set(tt.field, Number(1))
			if got := a.Length(); got != tt.want {
				t.Errorf("Length() after Set(%q) = %d, want %d", tt.field, got, tt.want)
			}
			if !a.HasOwn(tt.field) {
				t.Errorf("HasOwn(%q) = false, want true", tt.field)
			}
		})
	}

	a := NewObject(1, Array)
	a.SetLength(MaxArrayIndex + 2)
	if a.Length() != 0 {
		t.Errorf("SetLength(out of range) gave Length() = %d, want 0", a.Length())
	}
}

// TestObjectElements verifies that only own elements below the length are
// visited and that iteration stops early.
func TestObjectElements(t *testing.T) {
	a := NewObject(1, Array)
	a.SetLength(100_000_000)
	a.Set("7", Number(1))
	a.Set("name", Str("x"))
	a.Set("2", Str("y"))
	a.Set("4294967295", Bool(true))
	a.Set("-1", Null())

	var got []int64
	a.Elements(func(idx int64, _ Value) bool {
		got = append(got, idx)
		return true
	})
	if diff := cmp.Diff([]int64{7, 2}, got); diff != "" {
		t.Errorf("Elements() mismatch (-want +got):\n%s", diff)
	}

	calls := 0
	a.Elements(func(int64, Value) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Errorf("Elements() visited %d elements after stop, want 1", calls)
	}
}

// TestHeapAdd verifies declaration errors.
func TestHeapAdd(t *testing.T) {
	h := New()
	if err := h.Add(NewObject(1, Plain)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := h.Add(NewObject(1, Array)); !errors.Is(err, ErrDuplicateObject) {
		t.Errorf("Add(duplicate) error = %v, want ErrDuplicateObject", err)
	}
	if err := h.Add(NewObject(0, Plain)); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Add(id 0) error = %v, want ErrInvalidID", err)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
	if h.Deref(Number(1)) != nil {
		t.Error("Deref(number) should be nil")
	}
	if h.Deref(Ref(1)) == nil {
		t.Error("Deref(#1) should find the object")
	}
}

// TestHeapInstanceOf verifies prototype chain walks.
func TestHeapInstanceOf(t *testing.T) {
	h := New()

	// function Point() {}; Point.prototype = #11
	point := NewObject(10, Function)
	point.Prototype = 11
	pointProto := NewObject(11, Plain)

	// function Shape() {}; Shape.prototype = #21; Point.prototype.__proto__ = #21
	shape := NewObject(20, Function)
	shape.Prototype = 21
	shapeProto := NewObject(21, Plain)
	pointProto.Proto = 21

	p := NewObject(30, Plain)
	p.Proto = 11
	other := NewObject(31, Plain)

	// Malformed cycle must terminate.
	loopA := NewObject(40, Plain)
	loopB := NewObject(41, Plain)
	loopA.Proto = 41
	loopB.Proto = 40

	for _, o := range []*Object{point, pointProto, shape, shapeProto, p, other, loopA, loopB} {
		if err := h.Add(o); err != nil {
			t.Fatalf("Add(#%d) error = %v", o.ID, err)
		}
	}

	tests := []struct {
		name string
		obj  ID
		fn   ID
		want bool
	}{
		{"direct", 30, 10, true},
		{"inherited", 30, 20, true},
		{"unrelated", 31, 10, false},
		{"not a function", 30, 11, false},
		{"unknown object", 99, 10, false},
		{"cyclic chain", 40, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.InstanceOf(tt.obj, tt.fn); got != tt.want {
				t.Errorf("InstanceOf(#%d, #%d) = %v, want %v", tt.obj, tt.fn, got, tt.want)
			}
		})
	}
}
