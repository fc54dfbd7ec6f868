package trace

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// ctxCheckInterval is how many records pass between cancellation checks.
const ctxCheckInterval = 1024

// Locations maps sites to source locations collected from loc records.
type Locations map[typetag.Site]string

// Resolve returns the location of site, or "site N" if unknown.
func (l Locations) Resolve(site typetag.Site) string {
	if loc, ok := l[site]; ok {
		return loc
	}
	return "site " + strconv.FormatUint(uint64(site), 10)
}

// Replay decodes the trace in r and dispatches every event except headers
// and loc records to sink, stopping after the end record. A stream without
// an end record is replayed to EOF.
//
// Parameters:
//   - ctx: cancels a long replay between records
//   - name: trace name used in error messages
//   - r: trace stream
//   - sink: event consumer, usually a session
//
// Returns the collected locations. Sink errors are returned wrapped in a
// *FormatError carrying the offending line.
func Replay(ctx context.Context, name string, r io.Reader, sink Sink) (Locations, error) {
	locs := make(Locations)
	dec := NewDecoder(r)
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return locs, err
			}
		}
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return locs, nil
		}
		if err != nil {
			var fe *FormatError
			if errors.As(err, &fe) {
				fe.Name = name
			}
			return locs, err
		}
		if ev.Ev == EvLoc {
			locs[ev.Site] = ev.Loc
			continue
		}
		if ev.Ev == EvEnd {
			return locs, nil
		}
		if err := sink.Dispatch(ev); err != nil {
			return locs, &FormatError{Name: name, Line: dec.Line(), Message: err.Error(), Err: err}
		}
	}
}
