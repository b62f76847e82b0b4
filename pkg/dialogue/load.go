package dialogue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedScript is returned for any script that cannot be played.
var ErrMalformedScript = errors.New("malformed dialogue script")

// Format identifies a script encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// document is the wrapped layout written by older tooling: {"scenes": {...}}.
type document struct {
	Scenes Script `json:"scenes" yaml:"scenes"`
}

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(data []byte, format Format) (Script, error) {
	var (
		script Script
		err    error
	)
	switch format {
	case FormatYAML:
		script, err = parseYAML(data)
	default:
		script, err = parseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScript, err)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScript, err)
	}
	return script, nil
}

func parseJSON(data []byte) (Script, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("top level must be an object: %w", err)
	}

	if isWrapped(top) {
		var doc document
		if err := decodeStrictJSON(data, &doc); err != nil {
			return nil, err
		}
		if doc.Scenes == nil {
			return Script{}, nil
		}
		return doc.Scenes, nil
	}

	var script Script
	if err := decodeStrictJSON(data, &script); err != nil {
		return nil, err
	}
	if script == nil {
		script = Script{}
	}
	return script, nil
}

// isWrapped reports whether the document is {"scenes": {...}} rather than a bare scene map.
// A bare scene named "scenes" holds an array, so the two layouts never collide.
func isWrapped(top map[string]json.RawMessage) bool {
	raw, ok := top["scenes"]
	if !ok || len(top) != 1 {
		return false
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeStrictJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("strict JSON decoding failed: %w", err)
	}
	return nil
}

func parseYAML(data []byte) (Script, error) {
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("top level must be a mapping: %w", err)
	}

	n, ok := top["scenes"]
	wrapped := ok && len(top) == 1 && n.Kind == yaml.MappingNode

	var script Script
	var doc document
	var target any = &script
	if wrapped {
		target = &doc
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("strict YAML decoding failed: %w", err)
	}

	if wrapped {
		script = doc.Scenes
	}
	if script == nil {
		script = Script{}
	}
	return script, nil
}
