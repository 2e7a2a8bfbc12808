// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/specpub/specpub/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "specpub",
		Short: "Publish versioned API specifications",
		Long: TitleStyle.Render("specpub") + SubtitleStyle.Render(" - Publish versioned API specifications") + `

specpub stamps an OpenAPI document with the version of the build that
produced it and writes it into a checked-out distribution branch. Tag
builds publish a release copy and update the version index; builds of
the development branch refresh the latest copy.

` + SubtitleStyle.Render("Examples:") + `
  specpub publish                  Publish for $GITHUB_REF
  specpub publish --dry-run        Show what would be written
  specpub resolve --ref refs/tags/v1.2.0
  specpub index show               List published versions
  specpub config show              Show effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	pf := rootCmd.PersistentFlags()
	pf.BoolP(flagVerbose, "v", false, "enable debug logging and full error chains")
	pf.String(flagConfig, "", "config file (default is ./"+config.ConfigFileName+")")
	config.RegisterFlags(pf)

	rootCmd.AddCommand(
		newPublishCommand(app),
		newResolveCommand(app),
		newIndexCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleUnrenderedError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleUnrenderedError leaves errors the commands already rendered alone
// and styles the rest (usage errors, unknown commands) the fang way.
func handleUnrenderedError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
