package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDepotIntern_Deduplicates verifies equal layouts share an ID.
func TestDepotIntern_Deduplicates(t *testing.T) {
	d := NewDepot()

	a := d.Intern([]string{"x", "y"})
	b := d.Intern([]string{"x", "y"})
	c := d.Intern([]string{"y", "x"})
	e := d.Intern(nil)

	if a != b {
		t.Errorf("Intern(x,y) twice = %d, %d; want same ID", a, b)
	}
	if a == c {
		t.Errorf("Intern(y,x) = %d, want ID distinct from (x,y)", c)
	}
	if e == 0 || e == a || e == c {
		t.Errorf("Intern(empty) = %d, want a fresh non-zero ID", e)
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}
	t.Logf("ids: xy=%d yx=%d empty=%d", a, c, e)
}

// TestDepotIntern_SeparatorMatters verifies name boundaries are part of the layout.
func TestDepotIntern_SeparatorMatters(t *testing.T) {
	d := NewDepot()
	if d.Intern([]string{"ab"}) == d.Intern([]string{"a", "b"}) {
		t.Error("layouts [ab] and [a b] must not collide")
	}
}

// TestDepotNames verifies stored names are copies and render correctly.
func TestDepotNames(t *testing.T) {
	d := NewDepot()
	names := []string{"x", "y"}
	id := d.Intern(names)
	names[0] = "mutated"

	if diff := cmp.Diff([]string{"x", "y"}, d.Names(id)); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if got := d.String(id); got != "x|y|" {
		t.Errorf("String() = %q, want %q", got, "x|y|")
	}
	if d.Names(0) != nil || d.Names(99) != nil {
		t.Error("Names() of unknown IDs should be nil")
	}

	d.Reset()
	if d.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", d.Len())
	}
}

// TestSignatureEqual verifies identity-based equality.
func TestSignatureEqual(t *testing.T) {
	base := Signature{Layout: 1, Proto: 10, Constructor: 20}
	tests := []struct {
		name  string
		other Signature
		want  bool
	}{
		{"same", Signature{Layout: 1, Proto: 10, Constructor: 20}, true},
		{"layout", Signature{Layout: 2, Proto: 10, Constructor: 20}, false},
		{"proto", Signature{Layout: 1, Proto: 11, Constructor: 20}, false},
		{"constructor", Signature{Layout: 1, Proto: 10, Constructor: 21}, false},
		{"sentinel", Unsignaturable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
	if !Unsignaturable.Equal(Signature{Invalid: true}) {
		t.Error("sentinels must compare equal")
	}
}
