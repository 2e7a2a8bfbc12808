// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specpub/specpub/internal/hosting"
	"github.com/specpub/specpub/internal/release"
	"github.com/specpub/specpub/internal/specdoc"
)

// Viper keys. They double as CUE field names and, upper-cased with an
// EnvPrefix, as environment variable names.
const (
	KeySource       = "source"
	KeyDistBranch   = "dist_branch"
	KeyTargetDir    = "target_dir"
	KeyDevBranch    = "dev_branch"
	KeyPrefix       = "prefix"
	KeyIndexFile    = "index_file"
	KeyVersionField = "version_field"
	KeyRef          = "ref"
	KeyCommit       = "commit"
	KeyRepository   = "repository"
	KeyAPIURL       = "api_url"
	KeyToken        = "token"

	// EnvPrefix prefixes every specpub environment variable.
	EnvPrefix = "SPECPUB_"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrMissingRef is reported when no build reference was configured.
	ErrMissingRef = errors.New("build reference is not set")

	// Keys lists every configuration key in display order.
	Keys = []string{
		KeySource, KeyDistBranch, KeyTargetDir, KeyDevBranch, KeyPrefix,
		KeyIndexFile, KeyVersionField, KeyRef, KeyCommit, KeyRepository,
		KeyAPIURL, KeyToken,
	}
)

type (
	// Config is the resolved configuration of one specpub run. It is built
	// once by Load and passed by value afterwards.
	Config struct {
		Source       string `mapstructure:"source" toml:"source" yaml:"source"`
		DistBranch   string `mapstructure:"dist_branch" toml:"dist_branch" yaml:"dist_branch"`
		TargetDir    string `mapstructure:"target_dir" toml:"target_dir" yaml:"target_dir"`
		DevBranch    string `mapstructure:"dev_branch" toml:"dev_branch" yaml:"dev_branch"`
		Prefix       string `mapstructure:"prefix" toml:"prefix" yaml:"prefix"`
		IndexFile    string `mapstructure:"index_file" toml:"index_file" yaml:"index_file"`
		VersionField string `mapstructure:"version_field" toml:"version_field" yaml:"version_field"`
		Ref          string `mapstructure:"ref" toml:"ref" yaml:"ref"`
		Commit       string `mapstructure:"commit" toml:"commit" yaml:"commit"`
		Repository   string `mapstructure:"repository" toml:"repository" yaml:"repository"`
		APIURL       string `mapstructure:"api_url" toml:"api_url" yaml:"api_url"`
		// Token is never dumped.
		Token string `mapstructure:"token" toml:"-" yaml:"-"`
	}

	// InvalidConfigError lists every field that failed validation.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Source:       "openapi.yaml",
		DistBranch:   "gh-pages",
		DevBranch:    "refs/heads/main",
		Prefix:       "openapi",
		IndexFile:    "versions.json",
		VersionField: string(specdoc.DefaultVersionField),
		APIURL:       hosting.DefaultBaseURL,
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks the fields every command needs. Build-context fields
// (ref, commit, repository) are checked by the commands that use them.
func (c Config) Validate() error {
	var errs []error
	required := []struct {
		key, value string
	}{
		{KeySource, c.Source},
		{KeyTargetDir, c.TargetDir},
		{KeyDevBranch, c.DevBranch},
		{KeyPrefix, c.Prefix},
		{KeyIndexFile, c.IndexFile},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", r.key))
		}
	}
	if err := specdoc.FieldPath(c.VersionField).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyVersionField, err))
	}
	if c.Repository != "" {
		if _, _, err := hosting.SplitRepository(c.Repository); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", KeyRepository, err))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Target returns the publishing layout.
func (c Config) Target() release.Target {
	return release.Target{Dir: c.TargetDir, Prefix: c.Prefix, DevBranchRef: c.DevBranch}
}

// IndexDestination is the local path of the version index.
func (c Config) IndexDestination() string {
	return filepath.Join(c.TargetDir, c.IndexFile)
}

// Details classifies the configured reference.
func (c Config) Details() (release.Details, error) {
	if strings.TrimSpace(c.Ref) == "" {
		return release.Details{}, &InvalidConfigError{FieldErrors: []error{
			fmt.Errorf("%w: use --ref, %sREF or GITHUB_REF", ErrMissingRef, EnvPrefix),
		}}
	}
	return release.NewDetails(c.Ref, c.Source, c.Target())
}

// Value returns the field stored under a configuration key.
func (c Config) Value(key string) (string, bool) {
	switch key {
	case KeySource:
		return c.Source, true
	case KeyDistBranch:
		return c.DistBranch, true
	case KeyTargetDir:
		return c.TargetDir, true
	case KeyDevBranch:
		return c.DevBranch, true
	case KeyPrefix:
		return c.Prefix, true
	case KeyIndexFile:
		return c.IndexFile, true
	case KeyVersionField:
		return c.VersionField, true
	case KeyRef:
		return c.Ref, true
	case KeyCommit:
		return c.Commit, true
	case KeyRepository:
		return c.Repository, true
	case KeyAPIURL:
		return c.APIURL, true
	case KeyToken:
		return c.Token, true
	default:
		return "", false
	}
}
