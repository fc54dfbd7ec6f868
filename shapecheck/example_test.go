package shapecheck_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/kolkov/shapecheck/shapecheck"
)

const pointTrace = `{"ev":"header","format":"shapecheck-trace","version":"v1.0.0"}
{"ev":"loc","site":10,"loc":"point.js:1:9"}
{"ev":"loc","site":11,"loc":"point.js:2:1"}
{"ev":"loc","site":12,"loc":"point.js:3:1"}
{"ev":"object","object":{"id":1,"kind":"object","props":[{"name":"x","value":{"k":"number","n":0}}]}}
{"ev":"alloc","site":10,"value":{"k":"ref","id":1}}
{"ev":"write","site":11,"owner":{"k":"ref","id":1},"field":"x","value":{"k":"number","n":1}}
{"ev":"write","site":12,"owner":{"k":"ref","id":1},"field":"x","value":{"k":"string","s":"one"}}
{"ev":"end"}
`

// Example replays a trace in which field x holds a number and a string.
func Example() {
	a, err := shapecheck.AnalyzeTrace(context.Background(), "point.jsonl",
		strings.NewReader(pointTrace), shapecheck.DefaultConfig(), nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	rep := a.Report(10)
	for _, w := range rep.Types.Warnings {
		fmt.Printf("%s of %s:\n", w.Field, w.Owner)
		for _, o := range w.Observed {
			fmt.Printf("  %s at %s\n", o.Type, strings.Join(o.Locations, ", "))
		}
	}

	// Output:
	// x of object originated at point.js:1:9:
	//   number at point.js:1:9, point.js:2:1
	//   string at point.js:3:1
}

// Example_offline persists observations and analyzes them later.
func Example_offline() {
	cfg := shapecheck.DefaultConfig()
	cfg.Offline = true
	a, err := shapecheck.AnalyzeTrace(context.Background(), "point.jsonl",
		strings.NewReader(pointTrace), cfg, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("types analyzed:", a.Result.Types != nil)

	rep, err := shapecheck.SnapshotReport(a.Snapshot(), cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("warnings:", rep.Types.Total)

	// Output:
	// types analyzed: false
	// warnings: 1
}
