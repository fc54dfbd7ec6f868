// Package session owns the state of one analysis run and drives its two
// phases.
//
// Phase 1 is a sequential fold over trace events: every event is handed to
// the type observation recorder and the shape tracker, which share one heap
// mirror and one shadow store. Phase 2 starts on End, exactly once, and runs
// the type equivalence analysis and the shape summary over the frozen
// tables.
//
// Flow of a field write:
//  1. Recorder observes the written value's type
//  2. Tracker checks the write against the object's current state
//  3. The heap mirror applies the write
//  4. Tracker refreshes the object's cached signature
//
// Thread Safety: a Session is NOT safe for concurrent use. Independent
// sessions share nothing and may run in parallel.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kolkov/shapecheck/internal/analysis/config"
	"github.com/kolkov/shapecheck/internal/analysis/heap"
	"github.com/kolkov/shapecheck/internal/analysis/shadow"
	"github.com/kolkov/shapecheck/internal/analysis/shape"
	"github.com/kolkov/shapecheck/internal/analysis/typeequiv"
	"github.com/kolkov/shapecheck/internal/analysis/typeobs"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

var (
	// ErrTraceEnded is returned for events or End calls after End.
	ErrTraceEnded = errors.New("session: trace already ended")

	// ErrTraceActive is returned by Analyze before End.
	ErrTraceActive = errors.New("session: trace still active")
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostic logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Result is the outcome of a finished trace.
type Result struct {
	// SessionID identifies the run in snapshots and logs.
	SessionID uuid.UUID

	// Offline is set when analysis was skipped; Types is nil then.
	Offline bool

	// Types holds the type equivalence analysis.
	Types *typeequiv.Result

	// Observations are the raw recorder tables.
	Observations *typeobs.Observations

	// Shapes is the ranked shape tracking summary.
	Shapes shape.Summary
}

// Session is the harness-facing owner of all analysis state.
type Session struct {
	id       uuid.UUID
	cfg      config.Config
	logger   *slog.Logger
	heap     *heap.Heap
	store    *shadow.Store
	recorder *typeobs.Recorder
	tracker  *shape.Tracker
	events   int
	ended    bool
}

// New creates a session. cfg is used as given; callers validate it.
func New(cfg config.Config, opts ...Option) *Session {
	s := &Session{
		id:     uuid.New(),
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		heap:   heap.New(),
		store:  shadow.NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id.String())
	s.recorder = typeobs.NewRecorder(s.heap, s.store, typeobs.Options{
		IndexBound: cfg.IndexBound,
		Logger:     s.logger,
	})
	s.tracker = shape.NewTracker(s.heap, s.store, shape.Options{
		CacheSignatures: cfg.CacheSignatures,
		Logger:          s.logger,
	})
	return s
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Heap returns the heap mirror. Harnesses may inspect it; mutations must go
// through the event methods.
func (s *Session) Heap() *heap.Heap {
	return s.heap
}

// Tracker returns the shape tracker (for exporters that need raw records).
func (s *Session) Tracker() *shape.Tracker {
	return s.tracker
}

func (s *Session) active() error {
	if s.ended {
		return ErrTraceEnded
	}
	s.events++
	return nil
}

// Declare adds an object to the heap mirror. Objects must be declared
// before any event references them.
func (s *Session) Declare(obj *heap.Object) error {
	if err := s.active(); err != nil {
		return err
	}
	if err := s.heap.Add(obj); err != nil {
		return fmt.Errorf("declare: %w", err)
	}
	return nil
}

// Allocate reports the creation of an object, array or function at site.
func (s *Session) Allocate(site typetag.Site, v heap.Value) error {
	if err := s.active(); err != nil {
		return err
	}
	s.recorder.OnAllocation(site, v)
	s.tracker.OnAllocation(site, v)
	return nil
}

// FieldRead reports that owner.field evaluated to v.
func (s *Session) FieldRead(site typetag.Site, owner heap.Value, field string, v heap.Value) error {
	if err := s.active(); err != nil {
		return err
	}
	s.recorder.OnFieldRead(site, owner, field, v)
	s.tracker.OnFieldRead(site, owner, field)
	return nil
}

// FieldWrite reports the assignment owner.field = v and applies it to the
// heap mirror.
func (s *Session) FieldWrite(site typetag.Site, owner heap.Value, field string, v heap.Value) error {
	if err := s.active(); err != nil {
		return err
	}
	s.recorder.OnFieldWrite(site, owner, field, v)
	s.tracker.OnFieldWrite(site, owner, field, v)
	if obj := s.heap.Deref(owner); obj != nil {
		obj.Set(field, v)
	}
	s.tracker.OnFieldWritten(site, owner)
	return nil
}

// CallEnter reports entry into callee.
func (s *Session) CallEnter(site typetag.Site, callee heap.Value, isConstructor bool) error {
	if err := s.active(); err != nil {
		return err
	}
	s.tracker.OnCallEnter(site, callee, isConstructor)
	return nil
}

// CallExit reports the completion of a call with its receiver, arguments
// and result.
func (s *Session) CallExit(site typetag.Site, callee, receiver heap.Value, args []heap.Value, ret heap.Value, isConstructor bool) error {
	if err := s.active(); err != nil {
		return err
	}
	s.recorder.OnCall(site, callee, receiver, args, ret, isConstructor)
	s.tracker.OnCallExit(site, ret, isConstructor)
	return nil
}

// End closes Phase 1 and runs Phase 2. It may be called once; later calls
// return ErrTraceEnded.
//
// In offline mode the type analysis is skipped and only the raw
// observations are returned.
func (s *Session) End() (*Result, error) {
	if s.ended {
		return nil, ErrTraceEnded
	}
	s.ended = true
	st := s.tracker.Stats()
	s.logger.Info("trace ended",
		"events", s.events,
		"objects", s.heap.Len(),
		"shadows", s.store.Len(),
		"signatures", st.SignaturesGenerated,
		"recovered", st.RecoveredPanics)
	if s.cfg.Offline {
		return &Result{
			SessionID:    s.id,
			Offline:      true,
			Observations: s.recorder.Observations(),
			Shapes:       s.tracker.Summary(),
		}, nil
	}
	return s.analyze(), nil
}

// Analyze reruns Phase 2 over the frozen tables. The result equals the one
// End returned (for offline sessions, it is the analysis End skipped).
func (s *Session) Analyze() (*Result, error) {
	if !s.ended {
		return nil, ErrTraceActive
	}
	return s.analyze(), nil
}

func (s *Session) analyze() *Result {
	obs := s.recorder.Observations()
	types := typeequiv.Analyze(obs, typeequiv.Options{MaxTypesForDiff: s.cfg.MaxTypesForDiff})
	s.logger.Debug("type analysis done",
		"tags", obs.Fields.Len(),
		"classes", len(types.Table.Roots()),
		"warnings", len(types.Warnings))
	return &Result{
		SessionID:    s.id,
		Types:        types,
		Observations: obs,
		Shapes:       s.tracker.Summary(),
	}
}
