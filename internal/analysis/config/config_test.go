package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDefault tests the built-in defaults.
func TestDefault(t *testing.T) {
	want := Config{
		IndexBound:      10,
		MaxTypesForDiff: 5,
		Limit:           30,
		CacheSignatures: true,
		LogLevel:        "warn",
	}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

// TestParseOptions tests GORACE-style option strings.
func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    func(*Config)
		wantErr bool
	}{
		{"empty", "", func(*Config) {}, false},
		{"limit and bound", "limit=50 index_bound=16", func(c *Config) { c.Limit = 50; c.IndexBound = 16 }, false},
		{"booleans", "cache_signatures=false offline=true", func(c *Config) { c.CacheSignatures = false; c.Offline = true }, false},
		{"log level", "log_level=debug", func(c *Config) { c.LogLevel = "debug" }, false},
		{"disable diffs", "max_types_for_diff=-1", func(c *Config) { c.MaxTypesForDiff = -1 }, false},
		{"unknown key", "colour=on", nil, true},
		{"missing value", "limit", nil, true},
		{"bad number", "limit=lots", nil, true},
		{"negative limit", "limit=-1", nil, true},
		{"bad level", "log_level=loud", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(Default(), tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOption) {
					t.Errorf("ParseOptions(%q) error = %v, want ErrInvalidOption", tt.input, err)
				}
				if diff := cmp.Diff(Default(), got); diff != "" {
					t.Errorf("failed parse must return base unchanged:\n%s", diff)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOptions(%q) error = %v", tt.input, err)
			}
			want := Default()
			tt.want(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("ParseOptions(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

// TestFromEnv tests reading SHAPECHECK_OPTIONS.
func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "limit=7")
	cfg, err := FromEnv(Default())
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Limit != 7 {
		t.Errorf("Limit = %d, want 7", cfg.Limit)
	}
}

// TestLoadFile tests YAML overlays.
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("limit: 12\ncache_signatures: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(Default(), good)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Limit != 12 || cfg.CacheSignatures || cfg.IndexBound != 10 {
		t.Errorf("LoadFile() = %+v", cfg)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if cfg, err := LoadFile(Default(), empty); err != nil || cfg != Default() {
		t.Errorf("LoadFile(empty) = %+v, %v", cfg, err)
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("colour: on\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(Default(), unknown); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("LoadFile(unknown key) error = %v, want ErrInvalidOption", err)
	}

	if _, err := LoadFile(Default(), filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}
}

// TestLevel tests log level parsing.
func TestLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "error"
	lvl, err := cfg.Level()
	if err != nil || lvl != slog.LevelError {
		t.Errorf("Level() = %v, %v; want ERROR", lvl, err)
	}
	cfg.LogLevel = ""
	if lvl, _ := cfg.Level(); lvl != slog.LevelWarn {
		t.Errorf("Level() of empty = %v, want WARN", lvl)
	}
}
