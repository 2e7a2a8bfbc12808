// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/specpub/specpub/internal/config"
	"github.com/specpub/specpub/internal/hosting"
	"github.com/specpub/specpub/internal/publish"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// App wires CLI services and shared dependencies. Every command
	// handler receives an App reference and reaches configuration, the
	// remote index and the file system only through it.
	App struct {
		Config    ConfigProvider
		Fetchers  FetcherFactory
		FS        FileSystem
		LookupEnv func(string) (string, bool)
		BaseDir   string
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Fetchers  FetcherFactory
		FS        FileSystem
		LookupEnv func(string) (string, bool)
		// BaseDir is searched for specpub.cue. Empty means the working directory.
		BaseDir string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// FetcherFactory builds the remote index fetcher for a configuration.
	FetcherFactory func(cfg *config.Config) (publish.Fetcher, error)

	// FileSystem reads sources and writes artifacts.
	FileSystem interface {
		publish.Reader
		publish.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Fetchers == nil {
		deps.Fetchers = newGitHubFetcher
	}
	if deps.FS == nil {
		deps.FS = publish.OSFS{}
	}
	if deps.LookupEnv == nil {
		deps.LookupEnv = os.LookupEnv
	}

	return &App{
		Config:    deps.Config,
		Fetchers:  deps.Fetchers,
		FS:        deps.FS,
		LookupEnv: deps.LookupEnv,
		BaseDir:   deps.BaseDir,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// loadOptions collects the config inputs of one command invocation.
func (a *App) loadOptions(cmd *cobra.Command) config.LoadOptions {
	cfgFile, _ := cmd.Flags().GetString(flagConfig)
	return config.LoadOptions{
		ConfigFilePath: cfgFile,
		BaseDir:        a.BaseDir,
		Flags:          cmd.Flags(),
		LookupEnv:      a.LookupEnv,
	}
}

func (a *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return a.Config.Load(cmd.Context(), a.loadOptions(cmd))
}

// logger returns the run logger. Debug output is enabled by --verbose.
func (a *App) logger(cmd *cobra.Command) *log.Logger {
	level := log.InfoLevel
	if verbose, _ := cmd.Flags().GetBool(flagVerbose); verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// newGitHubFetcher reads the index from the distribution branch through
// the GitHub contents API.
func newGitHubFetcher(cfg *config.Config) (publish.Fetcher, error) {
	opts := []hosting.ClientOption{
		hosting.WithBaseURL(cfg.APIURL),
		hosting.WithRef(cfg.DistBranch),
		hosting.WithUserAgent(config.AppName + "/" + Version),
	}
	if cfg.Token != "" {
		opts = append(opts, hosting.WithToken(cfg.Token))
	}
	client, err := hosting.NewGitHubClient(cfg.Repository, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
