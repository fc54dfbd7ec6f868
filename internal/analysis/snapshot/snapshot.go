// Package snapshot persists analysis tables and findings as YAML or JSON.
//
// Two documents exist. Observations holds the raw Phase 1 tables of an
// offline session so they can be analyzed later; Findings holds the
// warnings, polymorphism records and counters of a finished analysis.
//
//	obs := snapshot.FromObservations(res.SessionID, res.Observations)
//	err := snapshot.WriteFile("run.yaml", obs)
//	...
//	obs, err := snapshot.ReadObservationsFile("run.yaml")
//	tables, err := obs.ToObservations()
//	result := typeequiv.Analyze(tables, typeequiv.Options{})
package snapshot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/kolkov/shapecheck/internal/analysis/shape"
	"github.com/kolkov/shapecheck/internal/analysis/trace"
	"github.com/kolkov/shapecheck/internal/analysis/typeequiv"
	"github.com/kolkov/shapecheck/internal/analysis/typeobs"
	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// Version is the snapshot format version written by this package.
const Version = "v1.0.0"

// ErrInvalidSnapshot is returned for snapshots that cannot be restored.
var ErrInvalidSnapshot = errors.New("snapshot: invalid snapshot")

// Observations is the persisted form of typeobs.Observations.
type Observations struct {
	Version   string    `json:"version" yaml:"version"`
	SessionID uuid.UUID `json:"session" yaml:"session"`

	FieldObservations     []Owner `json:"fieldObservations" yaml:"fieldObservations"`
	SignatureObservations []Owner `json:"signatureObservations" yaml:"signatureObservations"`

	TypeNames     *typeobs.Names `json:"typeNames" yaml:"typeNames"`
	FunctionNames *typeobs.Names `json:"functionNames" yaml:"functionNames"`

	// Locations resolves the sites of the snapshot. Optional.
	Locations trace.Locations `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// Owner is one entry of an observation table.
type Owner struct {
	Tag    typetag.Tag `json:"tag" yaml:"tag"`
	Fields []Field     `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field lists the types observed at one field or call slot.
type Field struct {
	Name  string         `json:"name" yaml:"name"`
	Types []ObservedType `json:"types" yaml:"types"`
}

// ObservedType is a type and the sites it was observed at.
type ObservedType struct {
	Type      typetag.Tag    `json:"type" yaml:"type"`
	Locations []typetag.Site `json:"locations" yaml:"locations"`
}

// Findings is the persisted result of a finished analysis.
type Findings struct {
	Version   string    `json:"version" yaml:"version"`
	SessionID uuid.UUID `json:"session" yaml:"session"`

	Warnings            []typeequiv.Warning     `json:"warnings" yaml:"warnings"`
	PolymorphismRecords []shape.PolymorphicSite `json:"polymorphismRecords" yaml:"polymorphismRecords"`
	Counters            Counters                `json:"counters" yaml:"counters"`
	Stats               shape.Stats             `json:"stats" yaml:"stats"`
}

// Counters holds the four shape counter tables.
type Counters struct {
	UninitializedReads       []shape.SiteCount `json:"uninitializedReads" yaml:"uninitializedReads"`
	ArrayTypeSwitches        []shape.SiteCount `json:"arrayTypeSwitches" yaml:"arrayTypeSwitches"`
	IncontiguousWrites       []shape.SiteCount `json:"incontiguousWrites" yaml:"incontiguousWrites"`
	FieldsOutsideConstructor []shape.SiteCount `json:"fieldsOutsideConstructor" yaml:"fieldsOutsideConstructor"`
}

// FromObservations captures obs in deterministic order. Callers set
// Locations when a location table is available.
func FromObservations(id uuid.UUID, obs *typeobs.Observations) *Observations {
	return &Observations{
		Version:               Version,
		SessionID:             id,
		FieldObservations:     owners(obs.Fields),
		SignatureObservations: owners(obs.Signatures),
		TypeNames:             obs.TypeNames,
		FunctionNames:         obs.FunctionNames,
	}
}

func owners(t *typeobs.Table) []Owner {
	out := make([]Owner, 0, t.Len())
	for _, tag := range t.Tags() {
		fm, _ := t.Fields(tag)
		o := Owner{Tag: tag}
		for _, name := range fm.Names() {
			tm := fm[name]
			f := Field{Name: name}
			for _, typ := range tm.Tags() {
				f.Types = append(f.Types, ObservedType{Type: typ, Locations: tm.Locations(typ)})
			}
			o.Fields = append(o.Fields, f)
		}
		out = append(out, o)
	}
	return out
}

// ToObservations rebuilds the observation tables.
func (o *Observations) ToObservations() (*typeobs.Observations, error) {
	if err := checkVersion(o.Version); err != nil {
		return nil, err
	}
	obs := typeobs.NewObservations()
	if err := restore(obs.Fields, o.FieldObservations); err != nil {
		return nil, fmt.Errorf("fieldObservations: %w", err)
	}
	if err := restore(obs.Signatures, o.SignatureObservations); err != nil {
		return nil, fmt.Errorf("signatureObservations: %w", err)
	}
	for _, names := range []struct{ src, dst *typeobs.Names }{
		{o.TypeNames, obs.TypeNames},
		{o.FunctionNames, obs.FunctionNames},
	} {
		if names.src == nil {
			continue
		}
		for pair := names.src.Oldest(); pair != nil; pair = pair.Next() {
			names.dst.Set(pair.Key, pair.Value)
		}
	}
	return obs, nil
}

func restore(t *typeobs.Table, entries []Owner) error {
	for _, e := range entries {
		if !e.Tag.IsTracked() {
			return fmt.Errorf("%w: owner %s is not a tracked type", ErrInvalidSnapshot, e.Tag)
		}
		t.Ensure(e.Tag)
		for _, f := range e.Fields {
			for _, typ := range f.Types {
				if len(typ.Locations) == 0 {
					return fmt.Errorf("%w: %s.%s type %s has no locations", ErrInvalidSnapshot, e.Tag, f.Name, typ.Type)
				}
				for _, site := range typ.Locations {
					t.Record(e.Tag, f.Name, typ.Type, site)
				}
			}
		}
	}
	return nil
}

// NewFindings captures the result of an analysis.
func NewFindings(id uuid.UUID, warnings []typeequiv.Warning, s shape.Summary) *Findings {
	return &Findings{
		Version:             Version,
		SessionID:           id,
		Warnings:            warnings,
		PolymorphismRecords: s.Polymorphic,
		Counters: Counters{
			UninitializedReads:       s.UninitializedReads,
			ArrayTypeSwitches:        s.ArrayTypeSwitches,
			IncontiguousWrites:       s.IncontiguousWrites,
			FieldsOutsideConstructor: s.FieldsOutsideConstructor,
		},
		Stats: s.Stats,
	}
}

func checkVersion(v string) error {
	if !semver.IsValid(v) || semver.Major(v) != semver.Major(Version) {
		return fmt.Errorf("%w: unsupported version %q (want %s)", ErrInvalidSnapshot, v, semver.Major(Version))
	}
	return nil
}
