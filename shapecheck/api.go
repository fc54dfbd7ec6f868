package shapecheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kolkov/shapecheck/internal/analysis/config"
	"github.com/kolkov/shapecheck/internal/analysis/report"
	"github.com/kolkov/shapecheck/internal/analysis/session"
	"github.com/kolkov/shapecheck/internal/analysis/snapshot"
	"github.com/kolkov/shapecheck/internal/analysis/trace"
	"github.com/kolkov/shapecheck/internal/analysis/typeequiv"
)

type (
	// Config configures an analysis run.
	Config = config.Config

	// Session consumes the events of one trace.
	Session = session.Session

	// Result is what a session produces at the end of its trace.
	Result = session.Result

	// Report is a diagnostic report ready for rendering.
	Report = report.Report
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig returns the defaults overridden by the YAML file at path (if
// path is not empty) and then by SHAPECHECK_OPTIONS.
func LoadConfig(path string) (Config, error) {
	cfg := config.Default()
	var err error
	if path != "" {
		if cfg, err = config.LoadFile(cfg, path); err != nil {
			return cfg, err
		}
	}
	if cfg, err = config.FromEnv(cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// NewLogger creates a text logger writing to w at the level cfg selects.
func NewLogger(w io.Writer, cfg Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// NewSession starts a session. A nil logger discards diagnostics.
func NewSession(cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		return session.New(cfg)
	}
	return session.New(cfg, session.WithLogger(logger))
}

// Analysis is the outcome of replaying one trace.
type Analysis struct {
	Name      string
	Result    *Result
	Locations trace.Locations
}

// AnalyzeTrace replays the trace read from r into a fresh session and ends
// it. name labels errors.
func AnalyzeTrace(ctx context.Context, name string, r io.Reader, cfg Config, logger *slog.Logger) (*Analysis, error) {
	s := NewSession(cfg, logger)
	locs, err := trace.Replay(ctx, name, r, s)
	if err != nil {
		return nil, err
	}
	res, err := s.End()
	if err != nil {
		return nil, err
	}
	return &Analysis{Name: name, Result: res, Locations: locs}, nil
}

// AnalyzeFile is AnalyzeTrace over the file at path.
func AnalyzeFile(ctx context.Context, path string, cfg Config, logger *slog.Logger) (*Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()
	return AnalyzeTrace(ctx, path, f, cfg, logger)
}

// Report builds the diagnostic report of a. Offline analyses report shape
// findings only.
func (a *Analysis) Report(limit int) *Report {
	in := report.Input{
		Shapes: a.Result.Shapes,
		Names:  a.Result.Observations,
	}
	if a.Result.Types != nil {
		in.Warnings = a.Result.Types.Warnings
	}
	return report.Build(in, a.Locations, report.Options{Limit: limit})
}

// Snapshot captures the raw observations of a, with its locations.
func (a *Analysis) Snapshot() *snapshot.Observations {
	snap := snapshot.FromObservations(a.Result.SessionID, a.Result.Observations)
	snap.Locations = a.Locations
	return snap
}

// Findings captures the warnings and shape findings of a.
func (a *Analysis) Findings() *snapshot.Findings {
	var warnings []typeequiv.Warning
	if a.Result.Types != nil {
		warnings = a.Result.Types.Warnings
	}
	return snapshot.NewFindings(a.Result.SessionID, warnings, a.Result.Shapes)
}

// AnalyzeSnapshot runs the type analysis over restored observations.
func AnalyzeSnapshot(snap *snapshot.Observations, cfg Config) (*typeequiv.Result, error) {
	obs, err := snap.ToObservations()
	if err != nil {
		return nil, err
	}
	return typeequiv.Analyze(obs, typeequiv.Options{MaxTypesForDiff: cfg.MaxTypesForDiff}), nil
}

// SnapshotReport analyzes snap and builds its type warning report.
func SnapshotReport(snap *snapshot.Observations, cfg Config) (*Report, error) {
	res, err := AnalyzeSnapshot(snap, cfg)
	if err != nil {
		return nil, err
	}
	in := report.Input{Warnings: res.Warnings, Names: res.Observations}
	return report.Build(in, snap.Locations, report.Options{Limit: cfg.Limit}), nil
}
