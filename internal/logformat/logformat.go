// Package logformat loads the parser configuration: the ordered list of
// fields a log line is made of. The scanner consults it only for the
// timestamp detection pattern; the remaining fields ride along for
// tooling that wants to display or validate the format.
//
// JSON is decoded with the standard library. YAML decoding is an
// injected capability so the package itself carries no YAML dependency;
// the command wires gopkg.in/yaml.v3 in.
package logformat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoYAML is returned when a configuration requires YAML decoding but
// the loader was built without a YAML capability.
var ErrNoYAML = errors.New("logformat: no yaml decoder configured")

// Field is one entry of the ordered field list.
type Field struct {
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Config is a parsed parser configuration.
type Config struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// StartPattern returns the detection pattern of the first field whose
// kind names a date or time, or "" when the configuration carries none
// (callers then fall back to the built-in pattern).
func (c *Config) StartPattern() string {
	for _, f := range c.Fields {
		if isDateTimeKind(f.Kind) {
			return f.Pattern
		}
	}
	return ""
}

// isDateTimeKind matches the accepted spellings of the timestamp field
// kind, ignoring case and surrounding space.
func isDateTimeKind(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "datetime", "date/time", "date-time", "timestamp":
		return true
	}
	return false
}

// Unmarshal decodes bytes into v. It matches the signature of
// yaml.Unmarshal and json.Unmarshal.
type Unmarshal func(data []byte, v any) error

// Loader reads parser configurations from disk.
type Loader struct {
	// YAML is the optional YAML decode capability. When nil, .yaml and
	// .yml configurations fail fast with ErrNoYAML.
	YAML Unmarshal
}

// Load reads and decodes the configuration at path. The decoder is
// chosen by extension; an unknown extension is tried as JSON first and
// then as YAML when that capability is present. Any failure here is a
// configuration error and callers treat it as fatal.
func (l Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parser config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return l.decodeJSON(data, path)
	case ".yaml", ".yml":
		return l.decodeYAML(data, path)
	default:
		cfg, jsonErr := l.decodeJSON(data, path)
		if jsonErr == nil {
			return cfg, nil
		}
		if l.YAML == nil {
			return nil, jsonErr
		}
		cfg, yamlErr := l.decodeYAML(data, path)
		if yamlErr != nil {
			return nil, fmt.Errorf("parse %s: not valid json (%v) nor yaml (%v)", path, jsonErr, yamlErr)
		}
		return cfg, nil
	}
}

func (l Loader) decodeJSON(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (l Loader) decodeYAML(data []byte, path string) (*Config, error) {
	if l.YAML == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoYAML)
	}
	var cfg Config
	if err := l.YAML(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
