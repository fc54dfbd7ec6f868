package shape

import (
	"github.com/kolkov/shapecheck/internal/analysis/layout"
	"github.com/kolkov/shapecheck/internal/analysis/shadow"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// Entry counts how often one signature was seen at a site.
type Entry struct {
	Sig   layout.Signature
	Count int

	// Instances counts observations per object. The zero InstanceID
	// collects objects created outside the trace.
	Instances map[shadow.InstanceID]int
}

// Record is the append-only list of signatures seen at one site.
type Record struct {
	Site    typetag.Site
	Entries []*Entry
}

// Polymorphic reports whether more than one signature was seen.
func (r *Record) Polymorphic() bool {
	return len(r.Entries) > 1
}

// observe counts sig for instance, appending a new entry for an unseen sig.
func (r *Record) observe(sig layout.Signature, instance shadow.InstanceID) {
	for _, e := range r.Entries {
		if e.Sig.Equal(sig) {
			e.Count++
			e.Instances[instance]++
			return
		}
	}
	r.Entries = append(r.Entries, &Entry{
		Sig:       sig,
		Count:     1,
		Instances: map[shadow.InstanceID]int{instance: 1},
	})
}

// weight ranks a site by how often its non-dominant signature occurs. The
// most frequent count only breaks ties: it is scaled into [0.1, 1).
func (r *Record) weight() float64 {
	most, second := 0, 0
	for _, e := range r.Entries {
		switch {
		case e.Count > most:
			second = most
			most = e.Count
		case e.Count > second:
			second = e.Count
		}
	}
	m := float64(most)
	for m >= 1 {
		m /= 10
	}
	return float64(second) + m
}

// Counters holds the four per-site event counts.
type Counters struct {
	UninitializedRead       map[typetag.Site]int
	ArrayTypeSwitch         map[typetag.Site]int
	IncontiguousWrite       map[typetag.Site]int
	FieldOutsideConstructor map[typetag.Site]int
}

func newCounters() Counters {
	return Counters{
		UninitializedRead:       make(map[typetag.Site]int),
		ArrayTypeSwitch:         make(map[typetag.Site]int),
		IncontiguousWrite:       make(map[typetag.Site]int),
		FieldOutsideConstructor: make(map[typetag.Site]int),
	}
}

// Stats are bookkeeping totals for a trace.
type Stats struct {
	SignaturesGenerated int `json:"signaturesGenerated" yaml:"signaturesGenerated"`
	SignatureLookups    int `json:"signatureLookups" yaml:"signatureLookups"`
	FieldWrites         int `json:"fieldWrites" yaml:"fieldWrites"`
	Unsignaturable      int `json:"unsignaturable" yaml:"unsignaturable"`
	RecoveredPanics     int `json:"recoveredPanics" yaml:"recoveredPanics"`
}
