package shadow

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kolkov/shapecheck/internal/analysis/heap"
	"github.com/kolkov/shapecheck/internal/analysis/layout"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// ErrAlreadyAttached is returned by Attach when the object already carries a tag.
var ErrAlreadyAttached = errors.New("shadow: tag already attached")

// Handle addresses a record in the store arena. The zero Handle is invalid.
type Handle uint32

// ArrayKind is the element-kind classification of an array.
type ArrayKind uint8

const (
	// ArrayUnclassified means no index has been written yet.
	ArrayUnclassified ArrayKind = iota
	// ArrayNumeric means all elements were numbers when classified.
	ArrayNumeric
	// ArrayNonNumeric means some element was not a number when classified.
	ArrayNonNumeric
)

// String returns a short classification name.
func (k ArrayKind) String() string {
	switch k {
	case ArrayNumeric:
		return "numeric"
	case ArrayNonNumeric:
		return "non-numeric"
	default:
		return "unclassified"
	}
}

// InstanceID distinguishes objects sharing a signature: a global sequence
// number plus the site the object was created at. The zero InstanceID means
// "not assigned".
type InstanceID struct {
	Seq  uint64
	Site typetag.Site
}

// IsZero reports whether no instance id has been assigned.
func (id InstanceID) IsZero() bool {
	return id.Seq == 0
}

// String renders the id as "(id: N iid: S)".
func (id InstanceID) String() string {
	return "(id: " + strconv.FormatUint(id.Seq, 10) + " iid: " + id.Site.String() + ")"
}

// Shadow is the metadata record of one heap object.
type Shadow struct {
	// Object is the identity this record belongs to.
	Object heap.ID

	// Tag is the allocation-site type tag. Valid only when Tagged is set.
	Tag    typetag.Tag
	Tagged bool

	// Instance is the instance id assigned by the shape tracker.
	Instance InstanceID

	// Sig is the cached shape signature. Valid only when HasSig is set.
	Sig    layout.Signature
	HasSig bool

	// Array is the element-kind classification (arrays only).
	Array ArrayKind
}

// Store is the arena of shadow records.
type Store struct {
	records  []Shadow // index = Handle-1
	byObject map[heap.ID]Handle
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byObject: make(map[heap.ID]Handle)}
}

// Attach tags obj, creating its record if needed.
//
// Parameters:
//   - obj: identity of a heap object (never a primitive)
//   - tag: the allocation-site tag
//
// Returns ErrAlreadyAttached if obj is already tagged. A record created
// earlier by Ensure is tagged in place.
func (s *Store) Attach(obj heap.ID, tag typetag.Tag) (Handle, error) {
	h := s.Ensure(obj)
	rec := s.Get(h)
	if rec.Tagged {
		return h, fmt.Errorf("%w: #%d is %s", ErrAlreadyAttached, obj, rec.Tag)
	}
	rec.Tag = tag
	rec.Tagged = true
	return h, nil
}

// Ensure returns the handle of obj's record, creating an untagged record on
// first use.
func (s *Store) Ensure(obj heap.ID) Handle {
	if h, ok := s.byObject[obj]; ok {
		return h
	}
	s.records = append(s.records, Shadow{Object: obj})
	h := Handle(len(s.records))
	s.byObject[obj] = h
	return h
}

// Lookup returns obj's record, if any.
func (s *Store) Lookup(obj heap.ID) (*Shadow, bool) {
	h, ok := s.byObject[obj]
	if !ok {
		return nil, false
	}
	return &s.records[h-1], true
}

// Get returns the record addressed by h. It panics on an invalid handle,
// which can only come from a programming error.
func (s *Store) Get(h Handle) *Shadow {
	if h == 0 || int(h) > len(s.records) {
		panic(fmt.Sprintf("shadow: invalid handle %d", h))
	}
	return &s.records[h-1]
}

// TagOf implements typetag.Resolver.
func (s *Store) TagOf(obj heap.ID) (typetag.Tag, bool) {
	rec, ok := s.Lookup(obj)
	if !ok || !rec.Tagged {
		return typetag.Tag{}, false
	}
	return rec.Tag, true
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Reset drops every record (for tests).
func (s *Store) Reset() {
	s.records = nil
	s.byObject = make(map[heap.ID]Handle)
}
