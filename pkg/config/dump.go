package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Dump formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrUnknownFormat indicates an unsupported dump format.
var ErrUnknownFormat = errors.New("unknown config format")

// Dump writes the default configuration to w in the given format.
func Dump(w io.Writer, format string) error {
	return Default().Write(w, format)
}

// Write serialises the configuration to w as YAML or JSON.
func (c *Config) Write(w io.Writer, format string) error {
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		encodeErr := enc.Encode(c)
		if encodeErr != nil {
			return fmt.Errorf("encode yaml: %w", encodeErr)
		}

		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		encodeErr := enc.Encode(c)
		if encodeErr != nil {
			return fmt.Errorf("encode json: %w", encodeErr)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
