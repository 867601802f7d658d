package record

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

// Format is a record serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for unsupported serializations.
var ErrUnknownFormat = errors.New("unknown record format")

// ParseFormat validates a format name. "yml" is accepted as YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Decode reads a record in format f.
func Decode(r io.Reader, f Format) (Record, error) {
	var rec Record
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&rec); err != nil {
			return Record{}, fmt.Errorf("failed to decode json record: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
			return Record{}, fmt.Errorf("failed to decode yaml record: %w", err)
		}
	default:
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	return rec, nil
}

// Unmarshal decodes data in format f.
func Unmarshal(data []byte, f Format) (Record, error) {
	return Decode(bytes.NewReader(data), f)
}

// Marshal serializes rec in format f.
func Marshal(rec Record, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(rec, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("failed to encode yaml record: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
