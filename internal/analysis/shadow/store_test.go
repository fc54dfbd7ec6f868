package shadow

import (
	"errors"
	"testing"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// TestStoreAttach tests tagging and the one-tag-per-object rule.
func TestStoreAttach(t *testing.T) {
	s := NewStore()
	tag := typetag.Tag{Kind: typetag.Object, Site: 7}

	h, err := s.Attach(1, tag)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if got := s.Get(h).Tag; got != tag {
		t.Errorf("Get().Tag = %v, want %v", got, tag)
	}

	h2, err := s.Attach(1, typetag.Tag{Kind: typetag.Array, Site: 9})
	if !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("second Attach() error = %v, want ErrAlreadyAttached", err)
	}
	if h2 != h {
		t.Errorf("second Attach() handle = %d, want %d", h2, h)
	}
	if got, _ := s.TagOf(1); got != tag {
		t.Errorf("TagOf() after failed Attach = %v, want %v", got, tag)
	}
}

// TestStoreEnsureThenAttach tests that untagged records can be tagged later.
func TestStoreEnsureThenAttach(t *testing.T) {
	s := NewStore()
	h := s.Ensure(5)
	s.Get(h).Instance = InstanceID{Seq: 3, Site: 2}

	if _, ok := s.TagOf(5); ok {
		t.Error("TagOf() of untagged record should report false")
	}

	h2, err := s.Attach(5, typetag.Tag{Kind: typetag.Object, Site: 2})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if h2 != h {
		t.Errorf("Attach() handle = %d, want existing %d", h2, h)
	}
	if got := s.Get(h).Instance.Seq; got != 3 {
		t.Errorf("Instance.Seq = %d, want 3 (record must be reused)", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

// TestStoreLookup tests lookups of present and absent identities.
func TestStoreLookup(t *testing.T) {
	s := NewStore()
	if _, ok := s.Lookup(42); ok {
		t.Error("Lookup() on empty store should miss")
	}
	for id := heap.ID(1); id <= 100; id++ {
		s.Ensure(id)
	}
	rec, ok := s.Lookup(50)
	if !ok || rec.Object != 50 {
		t.Errorf("Lookup(50) = %+v, %v", rec, ok)
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", s.Len())
	}
	if _, ok := s.Lookup(50); ok {
		t.Error("Lookup() after Reset should miss")
	}
}

// TestStoreGet_InvalidHandle tests that invalid handles panic.
func TestStoreGet_InvalidHandle(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Get(0) should panic")
		}
	}()
	NewStore().Get(0)
}

// TestInstanceIDString tests the instance id rendering.
func TestInstanceIDString(t *testing.T) {
	id := InstanceID{Seq: 4, Site: 17}
	if got := id.String(); got != "(id: 4 iid: 17)" {
		t.Errorf("String() = %q", got)
	}
	if id.IsZero() || !(InstanceID{}).IsZero() {
		t.Error("IsZero() mismatch")
	}
}
