// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/specpub/specpub/internal/config"
	"github.com/specpub/specpub/internal/hosting"
	"github.com/specpub/specpub/internal/issue"
	"github.com/specpub/specpub/internal/publish"
	"github.com/specpub/specpub/internal/release"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// issueStyle picks the glamour style from the terminal; pipes get notty.
const issueStyle = "auto"

// fail renders err on stderr and returns the ExitError the command exits with.
func (a *App) fail(cmd *cobra.Command, err error) error {
	verbose, _ := cmd.Flags().GetBool(flagVerbose)
	renderError(a.stderr, err, verbose)
	return &ExitError{Code: 1, Err: err}
}

// renderError prints the error line, then the catalog entry for its kind.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, verbose))

	id := classifyError(err)
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(issueStyle)
	if renderErr != nil {
		log.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method; verbose adds the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// classifyError maps an error to its issue catalog entry, or 0.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	var rateLimit *hosting.RateLimitError
	switch {
	case errors.Is(err, config.ErrMissingRef),
		errors.Is(err, release.ErrMissingCommit),
		errors.Is(err, publish.ErrNoFetcher),
		errors.Is(err, hosting.ErrInvalidRepository):
		return issue.MissingBuildContextId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	case errors.As(err, &rateLimit):
		return issue.RateLimitedId
	case errors.Is(err, publish.ErrSpecNotFound):
		return issue.SpecNotFoundId
	case errors.Is(err, publish.ErrSpecParse):
		return issue.SpecParseErrorId
	case errors.Is(err, publish.ErrRemoteFetch):
		return issue.RemoteFetchFailedId
	case errors.Is(err, publish.ErrIndexFormat):
		return issue.IndexFormatErrorId
	case errors.Is(err, publish.ErrWrite):
		return issue.WriteFailedId
	default:
		return 0
	}
}
