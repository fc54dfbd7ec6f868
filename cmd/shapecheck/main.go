// Package main implements the shapecheck CLI tool.
//
// The shapecheck tool analyzes execution traces of dynamically typed
// programs recorded by an instrumenting harness. It reports:
//
//  1. Fields and call slots observed with structurally unrelated types
//  2. Polymorphic statements that see several hidden classes
//  3. Array and constructor patterns that defeat JIT compilers
//
// Usage:
//
//	shapecheck analyze run.jsonl                 # Text report
//	shapecheck analyze -format yaml a.jsonl b.jsonl
//	shapecheck analyze -offline -o run.yaml run.jsonl
//	shapecheck snapshot-analyze run.yaml         # Analyze an offline snapshot
package main

import (
	"fmt"
	"os"

	"github.com/kolkov/shapecheck/shapecheck"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "analyze":
		exitOn(analyzeCommand(os.Args[2:]))
	case "snapshot-analyze":
		exitOn(snapshotCommand(os.Args[2:]))
	case "version", "--version", "-v":
		info := shapecheck.GetInfo()
		fmt.Printf("shapecheck version %s (%s)\n", info.Version, info.TraceFormat)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`shapecheck - Type Consistency and Hidden-Class Analyzer

USAGE:
    shapecheck <command> [arguments]

COMMANDS:
    analyze             Analyze one or more trace files
    snapshot-analyze    Analyze observation snapshots written by 'analyze -offline'
    version             Show version information
    help                Show this help message

ANALYZE FLAGS:
    -format text|yaml|json    Report format (default: text)
    -limit N                  Entries shown per report section (default: 30)
    -config FILE              YAML configuration file
    -offline                  Skip type analysis, write observation snapshots
    -o FILE                   Write the report (or snapshot) to FILE

EXAMPLES:
    # Report on a trace
    shapecheck analyze run.jsonl

    # Analyze several traces in parallel, YAML output
    shapecheck analyze -format yaml -o report.yaml a.jsonl b.jsonl

    # Record observations now, analyze them later
    shapecheck analyze -offline -o run.yaml run.jsonl
    shapecheck snapshot-analyze run.yaml

ENVIRONMENT:
    SHAPECHECK_OPTIONS    Space-separated key=value options, e.g.
                          "limit=50 index_bound=16 log_level=debug"

`)
}
