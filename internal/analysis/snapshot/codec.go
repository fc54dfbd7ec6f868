package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encoding selects the serialization of a snapshot.
type Encoding string

// Supported encodings.
const (
	YAML Encoding = "yaml"
	JSON Encoding = "json"
)

// EncodingFor picks the encoding from a file extension. Anything but
// ".json" is YAML.
func EncodingFor(path string) Encoding {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// Encode writes v to w.
func Encode(w io.Writer, enc Encoding, v any) error {
	switch enc {
	case JSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	case YAML:
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(v); err != nil {
			return err
		}
		return e.Close()
	default:
		return fmt.Errorf("snapshot: unknown encoding %q", enc)
	}
}

// Decode reads one document from r into v.
func Decode(r io.Reader, enc Encoding, v any) error {
	switch enc {
	case JSON:
		return json.NewDecoder(r).Decode(v)
	case YAML:
		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		return d.Decode(v)
	default:
		return fmt.Errorf("snapshot: unknown encoding %q", enc)
	}
}

// WriteFile writes v to path in the encoding its extension selects.
func WriteFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := Encode(f, EncodingFor(path), v); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return f.Close()
}

// ReadObservationsFile reads an Observations snapshot from path.
func ReadObservationsFile(path string) (*Observations, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	var o Observations
	if err := Decode(f, EncodingFor(path), &o); err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return &o, nil
}
