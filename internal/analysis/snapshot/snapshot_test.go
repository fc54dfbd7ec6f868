package snapshot

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/kolkov/shapecheck/internal/analysis/shape"
	"github.com/kolkov/shapecheck/internal/analysis/trace"
	"github.com/kolkov/shapecheck/internal/analysis/typeequiv"
	"github.com/kolkov/shapecheck/internal/analysis/typeobs"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

var (
	objA = typetag.Tag{Kind: typetag.Object, Site: 10}
	objB = typetag.Tag{Kind: typetag.Object, Site: 21}
	fnF  = typetag.Tag{Kind: typetag.Function, Site: 30}
)

// sampleObservations has one inconsistent field, a nested object and a
// called function.
func sampleObservations() *typeobs.Observations {
	obs := typeobs.NewObservations()
	obs.Fields.Record(objA, "x", typetag.NumberTag, 10)
	obs.Fields.Record(objA, "x", typetag.NumberTag, 11)
	obs.Fields.Record(objA, "x", typetag.StringTag, 12)
	obs.Fields.Record(objA, "y", objB, 13)
	obs.Fields.Record(objB, "a", typetag.NumberTag, 21)
	obs.Fields.Ensure(typetag.Tag{Kind: typetag.Array, Site: 40})
	obs.Signatures.Record(fnF, typeobs.SlotReturn, objA, 31)
	obs.TypeNames.Set(objA, "Point")
	obs.TypeNames.Set(objB, "")
	obs.FunctionNames.Set(fnF, "makePoint")
	return obs
}

// TestObservations_Restore tests that a restored snapshot analyzes exactly
// like the tables it was taken from.
func TestObservations_Restore(t *testing.T) {
	for _, enc := range []Encoding{YAML, JSON} {
		t.Run(string(enc), func(t *testing.T) {
			obs := sampleObservations()
			id := uuid.New()

			var buf bytes.Buffer
			snap := FromObservations(id, obs)
			snap.Locations = trace.Locations{10: "point.js:1:9"}
			if err := Encode(&buf, enc, snap); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			var decoded Observations
			if err := Decode(&buf, enc, &decoded); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got := decoded.Locations.Resolve(10); got != "point.js:1:9" {
				t.Errorf("Locations.Resolve(10) = %q", got)
			}
			if decoded.SessionID != id {
				t.Errorf("SessionID = %v, want %v", decoded.SessionID, id)
			}
			restored, err := decoded.ToObservations()
			if err != nil {
				t.Fatalf("ToObservations() error = %v", err)
			}

			want := typeequiv.Analyze(obs, typeequiv.Options{})
			got := typeequiv.Analyze(restored, typeequiv.Options{})
			if diff := cmp.Diff(want.Warnings, got.Warnings); diff != "" {
				t.Errorf("warnings differ after restore (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(obs.Fields.Tags(), restored.Fields.Tags()); diff != "" {
				t.Errorf("owners differ after restore (-want +got):\n%s", diff)
			}
			if restored.Name(objA) != "Point" || restored.Name(fnF) != "makePoint" {
				t.Errorf("names = %q, %q", restored.Name(objA), restored.Name(fnF))
			}
			if got := restored.TypeNames.Len(); got != 2 {
				t.Errorf("TypeNames.Len() = %d, want 2", got)
			}
		})
	}
}

// TestObservations_Invalid tests snapshots that must be rejected.
func TestObservations_Invalid(t *testing.T) {
	tests := []struct {
		name string
		obs  Observations
	}{
		{
			name: "untracked owner",
			obs: Observations{
				Version:           Version,
				FieldObservations: []Owner{{Tag: typetag.NumberTag}},
			},
		},
		{
			name: "type without locations",
			obs: Observations{
				Version: Version,
				FieldObservations: []Owner{{
					Tag:    objA,
					Fields: []Field{{Name: "x", Types: []ObservedType{{Type: typetag.NumberTag}}}},
				}},
			},
		},
		{
			name: "future major version",
			obs:  Observations{Version: "v2.0.0"},
		},
		{
			name: "missing version",
			obs:  Observations{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.obs.ToObservations(); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("ToObservations() error = %v, want ErrInvalidSnapshot", err)
			}
		})
	}
}

// TestFindings_YAML tests the findings document layout.
func TestFindings_YAML(t *testing.T) {
	res := typeequiv.Analyze(sampleObservations(), typeequiv.Options{})
	summary := shape.Summary{
		ArrayTypeSwitches: []shape.SiteCount{{Site: 4, Count: 1}},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, YAML, NewFindings(uuid.Nil, res.Warnings, summary)); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"version: v1.0.0",
		"kind: inconsistent-type",
		"owner: object(10)",
		"arrayTypeSwitches:",
		"- site: 4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("findings missing %q:\n%s", want, out)
		}
	}

	var back Findings
	if err := Decode(strings.NewReader(out), YAML, &back); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(back.Warnings) != 1 || back.Warnings[0].Kind != typeequiv.InconsistentType {
		t.Errorf("decoded warnings = %+v", back.Warnings)
	}
}

// TestWriteFile tests that the file extension selects the encoding.
func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	obs := FromObservations(uuid.New(), sampleObservations())
	for _, name := range []string{"run.yaml", "run.json"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, obs); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
		got, err := ReadObservationsFile(path)
		if err != nil {
			t.Fatalf("ReadObservationsFile(%s) error = %v", name, err)
		}
		if diff := cmp.Diff(obs.FieldObservations, got.FieldObservations); diff != "" {
			t.Errorf("%s: fieldObservations mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestEncodingFor(t *testing.T) {
	tests := map[string]Encoding{
		"a.json": JSON,
		"a.JSON": JSON,
		"a.yaml": YAML,
		"a.yml":  YAML,
		"a":      YAML,
	}
	for path, want := range tests {
		if got := EncodingFor(path); got != want {
			t.Errorf("EncodingFor(%q) = %q, want %q", path, got, want)
		}
	}
}
