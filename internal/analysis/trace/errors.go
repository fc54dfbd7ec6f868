package trace

import "fmt"

// FormatError reports a malformed trace record.
//
// Fields:
//   - Name: Trace file name (empty for unnamed streams)
//   - Line: Line number (1-indexed)
//   - Message: Human-readable error description
//   - Suggestion: Optional hint for fixing the trace
//   - Err: Underlying consumer error, if any
//
// Example:
//
//	err := &FormatError{
//	    Name:       "run.jsonl",
//	    Line:       3,
//	    Message:    `unknown value kind "int"`,
//	    Suggestion: "Use one of: number, string, bool, null, undefined, ref",
//	}
//	fmt.Println(err) // Output: run.jsonl:3: unknown value kind "int"
//
// Thread Safety: Immutable after creation, safe for concurrent use.
type FormatError struct {
	Name       string
	Line       int
	Message    string
	Suggestion string
	Err        error
}

// Error implements the error interface.
//
// Format: name:line: message
//
// If Suggestion is non-empty, it's appended on a new line with "Suggestion: " prefix.
func (e *FormatError) Error() string {
	name := e.Name
	if name == "" {
		name = "trace"
	}
	result := fmt.Sprintf("%s:%d: %s", name, e.Line, e.Message)
	if e.Suggestion != "" {
		result += fmt.Sprintf("\n\nSuggestion: %s", e.Suggestion)
	}
	return result
}

// Unwrap returns the underlying consumer error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

func newFormatError(line int, msg, suggestion string) *FormatError {
	return &FormatError{Line: line, Message: msg, Suggestion: suggestion}
}
