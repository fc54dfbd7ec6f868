package shapecheck

import "github.com/kolkov/shapecheck/internal/analysis/trace"

// Version information for shapecheck.
const (
	// Version is the current version of the analyzer.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info describes the analyzer build.
type Info struct {
	// Version is the analyzer version string.
	Version string

	// TraceFormat names the trace format and the version written by the
	// trace encoder.
	TraceFormat string
}

// GetInfo returns information about the analyzer.
//
// Example:
//
//	info := shapecheck.GetInfo()
//	fmt.Printf("shapecheck %s (%s)\n", info.Version, info.TraceFormat)
func GetInfo() Info {
	return Info{
		Version:     Version,
		TraceFormat: trace.FormatName + " " + trace.Version,
	}
}
