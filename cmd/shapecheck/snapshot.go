// snapshot.go implements the 'shapecheck snapshot-analyze' command.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/shapecheck/internal/analysis/snapshot"
	"github.com/kolkov/shapecheck/shapecheck"
)

// snapshotCommand implements the 'shapecheck snapshot-analyze' command.
//
// Example:
//
//	shapecheck snapshot-analyze run.observations.yaml
//	shapecheck snapshot-analyze -format json -limit 5 run.observations.json
func snapshotCommand(args []string) error {
	format, limit, files, err := parseSnapshotArgs(args)
	if err != nil {
		return err
	}
	return runSnapshot(format, limit, files, os.Stdout)
}

func parseSnapshotArgs(args []string) (format string, limit int, files []string, err error) {
	format, limit = "text", -1
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		switch name {
		case "-format", "-limit":
			if !hasValue {
				if i+1 >= len(args) {
					return "", 0, nil, fmt.Errorf("%s flag requires an argument", name)
				}
				i++
				value = args[i]
			}
			if name == "-format" {
				format = value
				continue
			}
			if limit, err = strconv.Atoi(value); err != nil || limit < 0 {
				return "", 0, nil, fmt.Errorf("-limit must be a non-negative integer, got %q", value)
			}
		default:
			if strings.HasPrefix(name, "-") {
				return "", 0, nil, fmt.Errorf("unknown flag: %s", args[i])
			}
			files = append(files, args[i])
		}
	}
	switch format {
	case "text", "yaml", "json":
	default:
		return "", 0, nil, fmt.Errorf("unknown format %q (want text, yaml or json)", format)
	}
	if len(files) == 0 {
		return "", 0, nil, fmt.Errorf("no snapshot files given")
	}
	return format, limit, files, nil
}

func runSnapshot(format string, limit int, files []string, w io.Writer) error {
	cfg, err := shapecheck.LoadConfig("")
	if err != nil {
		return err
	}
	if limit >= 0 {
		cfg.Limit = limit
	}
	for _, path := range files {
		snap, err := snapshot.ReadObservationsFile(path)
		if err != nil {
			return err
		}
		rep, err := shapecheck.SnapshotReport(snap, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if format == "text" {
			fmt.Fprintf(w, "Snapshot: %s (session %s)\n", path, snap.SessionID)
			if err := rep.Format(w); err != nil {
				return err
			}
			continue
		}
		if err := snapshot.Encode(w, snapshot.Encoding(format), rep); err != nil {
			return err
		}
	}
	return nil
}
