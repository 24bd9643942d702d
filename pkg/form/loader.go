package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a serialisation supported for definitions and value files.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat resolves a format name; "yml" is accepted as yaml.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// LoadDefinition reads a definition file, choosing the decoder from its
// extension.
func LoadDefinition(path string) (Definition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Definition{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("form: read definition: %w", err)
	}
	def, err := DecodeDefinition(bytes.NewReader(data), format)
	if err != nil {
		return Definition{}, fmt.Errorf("form: load %s: %w", path, err)
	}
	return def, nil
}

// DecodeDefinition decodes and normalises a definition.
func DecodeDefinition(r io.Reader, format Format) (Definition, error) {
	var def Definition
	if err := decode(r, format, &def); err != nil {
		return Definition{}, err
	}
	def.Normalize()
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// EncodeDefinition writes def in the requested format.
func EncodeDefinition(w io.Writer, format Format, def Definition) error {
	return encode(w, format, def)
}

// LoadValues reads a record of field values keyed by name.
func LoadValues(path string) (map[string]any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("form: read values: %w", err)
	}
	values, err := DecodeValues(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("form: load %s: %w", path, err)
	}
	return values, nil
}

// DecodeValues decodes a record of field values.
func DecodeValues(r io.Reader, format Format) (map[string]any, error) {
	values := make(map[string]any)
	if err := decode(r, format, &values); err != nil {
		return nil, err
	}
	for key, value := range values {
		values[key] = normalizeDecoded(value)
	}
	return values, nil
}

// EncodeValues writes a record of field values in the requested format.
func EncodeValues(w io.Writer, format Format, values map[string]any) error {
	return encode(w, format, values)
}

// LoadErrorPayload reads a server error payload (field path to messages).
func LoadErrorPayload(path string) (map[string][]string, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("form: read error payload: %w", err)
	}
	payload := make(map[string][]string)
	if err := decode(bytes.NewReader(data), format, &payload); err != nil {
		return nil, fmt.Errorf("form: load %s: %w", path, err)
	}
	return payload, nil
}

func decode(r io.Reader, format Format, out any) error {
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("form: decode yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("form: decode json: %w", err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(out); err != nil {
			return fmt.Errorf("form: decode toml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

func encode(w io.Writer, format Format, value any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("form: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("form: encode json: %w", err)
		}
		return nil
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(value); err != nil {
			return fmt.Errorf("form: encode toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// normalizeDecoded folds decoder-specific shapes into the ones the form
// works with: int64 (toml) becomes int and typed slices become []any.
func normalizeDecoded(value any) any {
	switch v := value.(type) {
	case int64:
		return int(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeDecoded(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return v
	}
}
