// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Dump formats.
const (
	FormatCUE  Format = "cue"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ErrInvalidFormat is returned for an unknown dump format.
var ErrInvalidFormat = errors.New("invalid dump format")

// Format names a config dump encoding.
type Format string

// Validate returns ErrInvalidFormat unless f is a known format.
func (f Format) Validate() error {
	switch f {
	case FormatCUE, FormatTOML, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected cue, toml or yaml)", ErrInvalidFormat, string(f))
	}
}

// Dump renders cfg in the requested format. The token is never written.
func Dump(cfg *Config, format Format) ([]byte, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	switch format {
	case FormatTOML:
		out, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode toml: %w", err)
		}
		return out, nil
	case FormatYAML:
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return out, nil
	default:
		return []byte(GenerateCUE(cfg)), nil
	}
}

// GenerateCUE generates a CUE representation of the configuration that
// validates against the embedded schema. Empty fields are omitted.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// specpub configuration file\n")
	sb.WriteString("// Values here are overridden by SPECPUB_* variables and flags.\n\n")

	for _, key := range Keys {
		if key == KeyToken {
			continue
		}
		val, _ := cfg.Value(key)
		if val == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s: %q\n", key, val)
	}

	return sb.String()
}
