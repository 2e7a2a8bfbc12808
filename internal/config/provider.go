// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"

	"github.com/spf13/pflag"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// BaseDir is searched for the implicit specpub.cue. Empty means the
	// working directory.
	BaseDir string
	// Flags holds the command-line overrides. Only flags that were set
	// on the command line take precedence.
	Flags *pflag.FlagSet
	// LookupEnv replaces os.LookupEnv when set.
	LookupEnv func(string) (string, bool)
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type layeredProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &layeredProvider{}
}

// Load reads configuration from the requested sources.
func (p *layeredProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Setting is one effective configuration value and the layer it came from.
type Setting struct {
	Key    string
	Value  string
	Origin string
}

// Explain loads the configuration and reports every key in display order.
// The token value is masked.
func Explain(ctx context.Context, opts LoadOptions) ([]Setting, error) {
	cfg, _, origins, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	settings := make([]Setting, 0, len(Keys))
	for _, key := range Keys {
		val, _ := cfg.Value(key)
		if key == KeyToken && val != "" {
			val = "********"
		}
		settings = append(settings, Setting{Key: key, Value: val, Origin: origins[key]})
	}
	return settings, nil
}

func (o LoadOptions) lookupEnv() func(string) (string, bool) {
	if o.LookupEnv != nil {
		return o.LookupEnv
	}
	return os.LookupEnv
}
