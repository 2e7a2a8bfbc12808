// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/specpub/specpub/internal/config"
	"github.com/specpub/specpub/internal/issue"
	"github.com/specpub/specpub/internal/release"
	"github.com/specpub/specpub/internal/versionindex"

	"github.com/spf13/cobra"
)

// errNotARelease rejects merging the latest channel into an index.
var errNotARelease = errors.New("only release labels are recorded in the version index")

func newIndexCommand(app *App) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect and repair the version index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	indexCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List the versions recorded on the distribution branch",
		Long: `Fetch the version index from the distribution branch and list its entries:
"stable" first, then semantic versions newest first, then other labels.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return app.fail(cmd, err)
			}
			ix, err := fetchIndex(cmd.Context(), app, cfg)
			if err != nil {
				return app.fail(cmd, err)
			}
			printIndex(app.stdout, ix)
			return nil
		},
	})

	indexCmd.AddCommand(&cobra.Command{
		Use:   "merge <file> <version>",
		Short: "Record a release in a local index file",
		Long: `Apply the publish merge to a local index file in place: record <version>,
point "stable" at it and keep every other entry. A missing file starts an
empty index; its directory must exist.`,
		Example: `  specpub index merge gh-pages/versions.json v1.2.0`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := mergeIndexFile(app, args[0], release.Version(args[1]))
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprintf(app.stdout, "%s %s in %s (%d entries)\n",
				SuccessStyle.Render("Recorded"), args[1], KeyStyle.Render(args[0]), ix.Len())
			return nil
		},
	})

	return indexCmd
}

func fetchIndex(ctx context.Context, app *App, cfg *config.Config) (*versionindex.Index, error) {
	fetcher, err := app.Fetchers(cfg)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("connect to the hosting API").
			WithResource(cfg.Repository).
			WithSuggestion("Set the repository with --repository or GITHUB_REPOSITORY").
			WithIssue(issue.MissingBuildContextId).
			Wrap(err).
			BuildError()
	}
	data, err := fetcher.FetchText(ctx, cfg.IndexFile)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("fetch version index").
			WithResource(cfg.IndexFile).
			WithIssue(fetchIssue(err)).
			Wrap(err).
			BuildError()
	}
	ix, err := versionindex.Parse(data)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse version index").
			WithResource(cfg.IndexFile).
			WithIssue(issue.IndexFormatErrorId).
			Wrap(err).
			BuildError()
	}
	return ix, nil
}

// fetchIssue tells rate limiting apart from other fetch failures.
func fetchIssue(err error) issue.Id {
	if id := classifyError(err); id == issue.RateLimitedId {
		return id
	}
	return issue.RemoteFetchFailedId
}

func printIndex(w io.Writer, ix *versionindex.Index) {
	if ix.Len() == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(no versions recorded)"))
		return
	}
	for _, label := range versionindex.DisplayOrder(ix) {
		rec, _ := ix.Get(label)
		fmt.Fprintf(w, "%s spec=%s source=%s\n", keyColumnStyle.Render(label.String()), rec.Spec, rec.Source)
	}
}

func mergeIndexFile(app *App, path string, v release.Version) (*versionindex.Index, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if !v.IsRelease() || v == versionindex.Stable {
		return nil, fmt.Errorf("%w: %q", errNotARelease, v)
	}

	prior := versionindex.New()
	data, err := app.FS.ReadText(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		if prior, err = versionindex.Parse(data); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("parse version index").
				WithResource(path).
				WithIssue(issue.IndexFormatErrorId).
				Wrap(err).
				BuildError()
		}
	}

	merged := versionindex.Merge(prior, v)
	out, err := versionindex.Encode(merged)
	if err != nil {
		return nil, err
	}
	if err := app.FS.WriteText(path, out); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("write version index").
			WithResource(path).
			WithIssue(issue.WriteFailedId).
			Wrap(err).
			BuildError()
	}
	return merged, nil
}
