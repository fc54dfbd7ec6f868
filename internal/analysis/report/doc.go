// Package report turns analysis results into a diagnostic report.
//
// The reporter does not compute anything itself. It consumes the ordered
// type warnings of a typeequiv.Result and the ranked shape.Summary, resolves
// site ids to source locations through a Resolver supplied by the harness,
// and caps every section at a display limit while keeping the true total.
//
// # Output
//
// A Report is a plain value with json and yaml tags for structured output.
// Format renders it as text framed like the Go race detector:
//
//	==================
//	WARNING: INCONSISTENT TYPES (1)
//	x of object Point originated at main.js:3:9 has multiple types:
//	    number
//	        found at main.js:4:5
//	    string
//	        found at main.js:9:5
//	==================
//
// ANSI emphasis is only emitted when the writer is a terminal.
//
// # Example Usage
//
//	rep := report.Build(report.Input{
//	    Warnings: res.Types.Warnings,
//	    Shapes:   res.Shapes,
//	    Names:    res.Observations,
//	}, locations, report.Options{Limit: 30})
//	if err := rep.Format(os.Stdout); err != nil {
//	    return err
//	}
package report
