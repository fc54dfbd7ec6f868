// analyze.go implements the 'shapecheck analyze' command.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/shapecheck/internal/analysis/snapshot"
	"github.com/kolkov/shapecheck/shapecheck"
)

// analyzeConfig holds configuration for the analyze command.
type analyzeConfig struct {
	// Trace files to analyze
	files []string

	// Report format: text, yaml or json
	format string

	// Entries per report section, -1 when not given
	limit int

	// YAML configuration file (from -config)
	configFile string

	// Skip type analysis and write snapshots (-offline)
	offline bool

	// Output file (from -o), stdout when empty
	outputFile string
}

// traceReport is one entry of a structured multi-trace report.
type traceReport struct {
	Trace   string             `json:"trace" yaml:"trace"`
	Session string             `json:"session" yaml:"session"`
	Report  *shapecheck.Report `json:"report" yaml:"report"`
}

// analyzeCommand implements the 'shapecheck analyze' command.
//
// Flow:
//  1. Parse arguments (flags + trace files)
//  2. Layer configuration: defaults, -config file, SHAPECHECK_OPTIONS, flags
//  3. Replay every trace in its own session, in parallel
//  4. Write reports in argument order, or snapshots in offline mode
//
// Example:
//
//	shapecheck analyze run.jsonl
//	shapecheck analyze -format json -limit 10 a.jsonl b.jsonl
func analyzeCommand(args []string) error {
	cfg, err := parseAnalyzeArgs(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runAnalyze(ctx, cfg, os.Stdout, os.Stderr)
}

// parseAnalyzeArgs parses command-line arguments for 'shapecheck analyze'.
func parseAnalyzeArgs(args []string) (*analyzeConfig, error) {
	config := &analyzeConfig{format: "text", limit: -1}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "-format", "-limit", "-config", "-o":
			if !hasValue {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("%s flag requires an argument", name)
				}
				i++
				value = args[i]
			}
			if err := config.set(name, value); err != nil {
				return nil, err
			}
			continue
		case "-offline":
			config.offline = true
			continue
		}

		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("unknown flag: %s", arg)
		}
		config.files = append(config.files, arg)
	}

	if len(config.files) == 0 {
		return nil, fmt.Errorf("no trace files given")
	}
	if config.offline && config.outputFile != "" && len(config.files) > 1 {
		return nil, fmt.Errorf("-o cannot name one snapshot for %d traces", len(config.files))
	}
	return config, nil
}

func (c *analyzeConfig) set(flag, value string) error {
	switch flag {
	case "-format":
		switch value {
		case "text", "yaml", "json":
			c.format = value
		default:
			return fmt.Errorf("unknown format %q (want text, yaml or json)", value)
		}
	case "-limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("-limit must be a non-negative integer, got %q", value)
		}
		c.limit = n
	case "-config":
		c.configFile = value
	case "-o":
		c.outputFile = value
	}
	return nil
}

// runAnalyze runs the analyze command with parsed arguments.
func runAnalyze(ctx context.Context, ac *analyzeConfig, stdout, stderr io.Writer) error {
	cfg, err := shapecheck.LoadConfig(ac.configFile)
	if err != nil {
		return err
	}
	if ac.limit >= 0 {
		cfg.Limit = ac.limit
	}
	cfg.Offline = cfg.Offline || ac.offline
	logger, err := shapecheck.NewLogger(stderr, cfg)
	if err != nil {
		return err
	}

	analyses := make([]*shapecheck.Analysis, len(ac.files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range ac.files {
		g.Go(func() error {
			a, err := shapecheck.AnalyzeFile(gctx, path, cfg, logger.With("trace", path))
			if err != nil {
				return err
			}
			analyses[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Offline {
		return writeSnapshots(ac, analyses, stdout)
	}

	if ac.outputFile == "" {
		return writeReports(stdout, ac.format, analyses, cfg.Limit)
	}
	if err := writeReportFile(ac.outputFile, ac.format, analyses, cfg.Limit); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Report written: %s\n", ac.outputFile)
	return nil
}

// writeReportFile writes the reports to path. A failed Close is reported,
// since buffered data may only reach the disk then.
func writeReportFile(path, format string, analyses []*shapecheck.Analysis, limit int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()
	if err := writeReports(f, format, analyses, limit); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeReports(w io.Writer, format string, analyses []*shapecheck.Analysis, limit int) error {
	if format == "text" {
		for _, a := range analyses {
			if len(analyses) > 1 {
				fmt.Fprintf(w, "\nTrace: %s\n", a.Name)
			}
			if err := a.Report(limit).Format(w); err != nil {
				return err
			}
		}
		return nil
	}
	reports := make([]traceReport, len(analyses))
	for i, a := range analyses {
		reports[i] = traceReport{
			Trace:   a.Name,
			Session: a.Result.SessionID.String(),
			Report:  a.Report(limit),
		}
	}
	return snapshot.Encode(w, snapshot.Encoding(format), reports)
}

func writeSnapshots(ac *analyzeConfig, analyses []*shapecheck.Analysis, stdout io.Writer) error {
	for _, a := range analyses {
		path := ac.outputFile
		if path == "" {
			path = snapshotPath(a.Name, ac.format)
		}
		if err := snapshot.WriteFile(path, a.Snapshot()); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Snapshot written: %s -> %s\n", a.Name, path)
	}
	return nil
}

// snapshotPath derives a snapshot file name from a trace file name.
func snapshotPath(tracePath, format string) string {
	ext := ".yaml"
	if format == "json" {
		ext = ".json"
	}
	base := strings.TrimSuffix(tracePath, filepath.Ext(tracePath))
	return base + ".observations" + ext
}
