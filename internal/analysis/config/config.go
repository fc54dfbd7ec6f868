// Package config holds the tunable options of an analysis run.
//
// Options come from three layers, later layers overriding earlier ones:
//
//	cfg := config.Default()                 // built-in defaults
//	cfg, err = config.LoadFile(cfg, path)   // optional YAML file
//	cfg, err = config.FromEnv(cfg)          // SHAPECHECK_OPTIONS
//
// SHAPECHECK_OPTIONS uses the space-separated key=value syntax of GORACE:
//
//	SHAPECHECK_OPTIONS="limit=50 index_bound=16 cache_signatures=false"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable read by FromEnv.
const EnvVar = "SHAPECHECK_OPTIONS"

// ErrInvalidOption is returned for unknown keys and out-of-range values.
var ErrInvalidOption = errors.New("config: invalid option")

// Config configures one analysis session.
type Config struct {
	// IndexBound is the highest array index recorded as its own field
	// observation; larger indices share one overflow slot.
	// Default: 10.
	IndexBound int `yaml:"index_bound"`

	// MaxTypesForDiff is the largest number of observed types for which a
	// warning gets a type diff. Negative disables diffs.
	// Default: 5.
	MaxTypesForDiff int `yaml:"max_types_for_diff"`

	// Limit caps the entries printed per report section.
	// Default: 30.
	Limit int `yaml:"limit"`

	// CacheSignatures keeps shape signatures between writes.
	// Default: true.
	CacheSignatures bool `yaml:"cache_signatures"`

	// Offline skips analysis at end of trace; the raw observations are
	// returned for persistence instead.
	// Default: false.
	Offline bool `yaml:"offline"`

	// LogLevel is the minimum level of diagnostic logs: debug, info, warn
	// or error.
	// Default: warn.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		IndexBound:      10,
		MaxTypesForDiff: 5,
		Limit:           30,
		CacheSignatures: true,
		LogLevel:        "warn",
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.IndexBound < 0 {
		return fmt.Errorf("%w: index_bound must be >= 0, got %d", ErrInvalidOption, c.IndexBound)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: limit must be >= 0, got %d", ErrInvalidOption, c.Limit)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidOption, c.LogLevel)
	}
	return lvl, nil
}

// LoadFile overlays the YAML file at path onto base. Keys missing from the
// file keep their base values.
func LoadFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(base, data)
}

// Parse overlays YAML data onto base.
func Parse(base Config, data []byte) (Config, error) {
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// FromEnv overlays the options in SHAPECHECK_OPTIONS onto base.
func FromEnv(base Config) (Config, error) {
	return ParseOptions(base, os.Getenv(EnvVar))
}

// ParseOptions overlays space-separated key=value pairs onto base.
func ParseOptions(base Config, s string) (Config, error) {
	cfg := base
	for _, field := range strings.Fields(s) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return base, fmt.Errorf("%w: %q is not key=value", ErrInvalidOption, field)
		}
		if err := cfg.set(key, value); err != nil {
			return base, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "index_bound":
		c.IndexBound, err = strconv.Atoi(value)
	case "max_types_for_diff":
		c.MaxTypesForDiff, err = strconv.Atoi(value)
	case "limit":
		c.Limit, err = strconv.Atoi(value)
	case "cache_signatures":
		c.CacheSignatures, err = strconv.ParseBool(value)
	case "offline":
		c.Offline, err = strconv.ParseBool(value)
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidOption, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%s: %v", ErrInvalidOption, key, value, err)
	}
	return nil
}
