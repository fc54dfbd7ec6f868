// Package shapecheck finds type inconsistencies and hidden-class
// instabilities in execution traces of dynamically typed programs.
//
// A harness instruments the traced program and reports allocations, field
// accesses and calls. shapecheck consumes that event stream in one pass and,
// at the end of the trace, runs two analyses:
//
//   - Type consistency: objects created at the same site, and functions
//     defined at the same site, are grouped into structural types. A field
//     or call slot that holds structurally unrelated types is reported.
//   - Shape tracking: every property access is checked against the hidden
//     class (layout, prototype and constructor) of its base object. Sites
//     that see several hidden classes are ranked, and array and constructor
//     patterns that defeat JIT compilers are counted.
//
// # Quick Start
//
// Replay a recorded trace file:
//
//	cfg, err := shapecheck.LoadConfig("")
//	if err != nil {
//		return err
//	}
//	a, err := shapecheck.AnalyzeFile(ctx, "run.jsonl", cfg, nil)
//	if err != nil {
//		return err
//	}
//	_ = a.Report(cfg.Limit).Format(os.Stdout)
//
// Harnesses written in Go drive a Session directly:
//
//	s := shapecheck.NewSession(cfg, logger)
//	_ = s.Declare(obj)
//	_ = s.Allocate(site, heap.Ref(obj.ID))
//	...
//	res, err := s.End()
//
// # Trace Format
//
// Traces are JSON lines starting with a versioned header. See the trace
// package for the record kinds.
//
// # Configuration
//
// LoadConfig layers the defaults, an optional YAML file and the
// SHAPECHECK_OPTIONS environment variable:
//
//	SHAPECHECK_OPTIONS="limit=50 index_bound=16 log_level=debug"
//
// # Offline Mode
//
// With Config.Offline set, the type analysis is skipped at the end of the
// trace. Analysis.Snapshot captures the raw observations, which
// AnalyzeSnapshot analyzes later.
package shapecheck
