// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specpub/specpub/internal/issue"
	"github.com/specpub/specpub/pkg/cueutil"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Origins reported by Explain for keys no layer set.
const (
	OriginDefault    = "default"
	OriginDistBranch = "default (dist_branch)"
)

const (
	// AppName is the application name.
	AppName = "specpub"
	// ConfigFileName is the implicit config file looked up in the base directory.
	ConfigFileName = "specpub.cue"

	schemaDefinition = "#Config"
)

//go:embed config_schema.cue
var configSchema []byte

// ciEnv maps CI environment variables onto configuration keys. SPECPUB_*
// variables take precedence over these.
var ciEnv = []struct {
	name, key string
}{
	{"GITHUB_REF", KeyRef},
	{"GITHUB_SHA", KeyCommit},
	{"GITHUB_REPOSITORY", KeyRepository},
	{"GITHUB_API_URL", KeyAPIURL},
	{"GITHUB_TOKEN", KeyToken},
}

// FlagName returns the command-line flag bound to a configuration key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// EnvName returns the SPECPUB_* environment variable for a configuration key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// ResolvePath returns the config file Load would read, or "" when there is none.
func ResolvePath(opts LoadOptions) string {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath
	}
	implicit := filepath.Join(opts.BaseDir, ConfigFileName)
	if fileExists(implicit) {
		return implicit
	}
	return ""
}

// loadWithOptions layers defaults, the config file, the environment and
// flags into one Config. The returned map names the layer that supplied
// each key.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, map[string]string, error) {
	select {
	case <-ctx.Done():
		return nil, "", nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	origins := make(map[string]string, len(Keys))
	for _, key := range Keys {
		origins[key] = OriginDefault
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault(KeySource, defaults.Source)
	v.SetDefault(KeyDistBranch, defaults.DistBranch)
	v.SetDefault(KeyDevBranch, defaults.DevBranch)
	v.SetDefault(KeyPrefix, defaults.Prefix)
	v.SetDefault(KeyIndexFile, defaults.IndexFile)
	v.SetDefault(KeyVersionField, defaults.VersionField)
	v.SetDefault(KeyAPIURL, defaults.APIURL)

	resolvedPath := ResolvePath(opts)
	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, "", nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path passed to --config is correct").
			WithSuggestion("Use 'specpub config dump' to print a starting configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}
	if resolvedPath != "" {
		fileKeys, err := loadCUEIntoViper(v, resolvedPath)
		if err != nil {
			return nil, "", nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'specpub config --help' for configuration options").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		for _, key := range fileKeys {
			origins[key] = "file " + resolvedPath
		}
	}

	env := envLayer(opts.lookupEnv())
	values := make(map[string]any, len(env))
	for key, e := range env {
		values[key] = e.value
		origins[key] = "env " + e.name
	}
	if err := v.MergeConfigMap(values); err != nil {
		return nil, "", nil, fmt.Errorf("failed to merge environment: %w", err)
	}

	if opts.Flags != nil {
		for _, key := range Keys {
			flag := opts.Flags.Lookup(FlagName(key))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, "", nil, fmt.Errorf("failed to bind flag --%s: %w", flag.Name, err)
			}
			if flag.Changed {
				origins[key] = "flag --" + flag.Name
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.TargetDir == "" {
		cfg.TargetDir = cfg.DistBranch
		origins[KeyTargetDir] = OriginDistBranch
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Run 'specpub config show' to see where each value comes from").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, origins, nil
}

type envValue struct {
	name, value string
}

// envLayer collects CI variables first and SPECPUB_* variables second so
// the latter win.
func envLayer(lookup func(string) (string, bool)) map[string]envValue {
	layer := make(map[string]envValue)
	for _, e := range ciEnv {
		if val, ok := lookup(e.name); ok && val != "" {
			layer[e.key] = envValue{name: e.name, value: val}
		}
	}
	for _, key := range Keys {
		name := EnvName(key)
		if val, ok := lookup(name); ok && val != "" {
			layer[key] = envValue{name: name, value: val}
		}
	}
	return layer
}

// loadCUEIntoViper validates the file against #Config, merges it and
// returns the keys it set. Fields are optional, so the file does not need
// to be concrete.
func loadCUEIntoViper(v *viper.Viper, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.Decode[map[string]any](configSchema, data, schemaDefinition,
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	return slices.Sorted(maps.Keys(configMap)), nil
}

// RegisterFlags adds one string flag per overridable key. Token is only
// read from the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	usage := map[string]string{
		KeySource:       "source specification file",
		KeyDistBranch:   "branch holding published artifacts",
		KeyTargetDir:    "local directory receiving artifacts (default: dist branch)",
		KeyDevBranch:    "reference that publishes to the latest channel",
		KeyPrefix:       "base name of published files",
		KeyIndexFile:    "version index file name",
		KeyVersionField: "dotted path of the field stamped with the version",
		KeyRef:          "build reference (default: $GITHUB_REF)",
		KeyCommit:       "commit hash (default: $GITHUB_SHA)",
		KeyRepository:   "hosting repository as owner/name (default: $GITHUB_REPOSITORY)",
		KeyAPIURL:       "hosting API base URL (default: $GITHUB_API_URL)",
	}
	for _, key := range Keys {
		if key == KeyToken {
			continue
		}
		fs.String(FlagName(key), "", usage[key])
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
