// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/specpub/specpub/internal/config"
	"github.com/specpub/specpub/internal/issue"
	"github.com/specpub/specpub/internal/publish"
	"github.com/specpub/specpub/internal/specdoc"

	"github.com/spf13/cobra"
)

type publishParams struct {
	stdout io.Writer
	cfg    *config.Config
	dryRun bool
}

func newPublishCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Stamp and publish the specification for the current build",
		Long: `Stamp the source specification with the build version and write it into
the target directory.

Tag builds (refs/tags/<label>) fetch the version index from the
distribution branch, record the release under its label and "stable",
write the merged index, then write <prefix>.<label><ext> and
<prefix>.latest<ext>. Every other build only writes the latest copy,
stamped latest-<commit>.`,
		Example: `  # Publish for the CI build
  specpub publish

  # Publish a tag locally without touching the file system
  specpub publish --dry-run --ref refs/tags/v1.2.0 --repository acme/api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return app.fail(cmd, err)
			}

			p := publishParams{stdout: app.stdout, cfg: cfg, dryRun: dryRun}
			if err := runPublish(cmd.Context(), app, cmd, p); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "record planned writes and print them instead of writing")

	return cmd
}

// newPublishRequest builds the publisher input from configuration.
func newPublishRequest(cfg *config.Config) (publish.Request, error) {
	details, err := cfg.Details()
	if err != nil {
		return publish.Request{}, err
	}
	return publish.Request{
		Details:          details,
		Commit:           cfg.Commit,
		IndexFile:        cfg.IndexFile,
		IndexDestination: cfg.IndexDestination(),
		VersionField:     specdoc.FieldPath(cfg.VersionField),
	}, nil
}

// runPublish is the publish flow, separated from Cobra for testability.
func runPublish(ctx context.Context, app *App, cmd *cobra.Command, p publishParams) error {
	req, err := newPublishRequest(p.cfg)
	if err != nil {
		return err
	}

	opts := []publish.Option{publish.WithLogger(app.logger(cmd))}
	if req.Details.IsRelease {
		fetcher, err := app.Fetchers(p.cfg)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("connect to the hosting API").
				WithResource(p.cfg.Repository).
				WithSuggestion("Set the repository with --repository or GITHUB_REPOSITORY").
				Wrap(err).
				BuildError()
		}
		opts = append(opts, publish.WithFetcher(fetcher))
	}

	var writer publish.Writer = app.FS
	recorder := &publish.Recorder{}
	if p.dryRun {
		writer = recorder
	}

	res, err := publish.NewPublisher(app.FS, writer, opts...).Publish(ctx, req)
	if err != nil {
		if res != nil && len(res.Written) > 0 && !p.dryRun {
			fmt.Fprintln(p.stdout, WarningStyle.Render("Files written before the failure:"))
			for _, path := range res.Written {
				fmt.Fprintf(p.stdout, "  %s\n", path)
			}
		}
		return publishError(err, req)
	}

	if p.dryRun {
		fmt.Fprintf(p.stdout, "%s %s (%s)\n", WarningStyle.Render("Dry run:"), res.Version, res.Stamp)
		for _, w := range recorder.Writes() {
			fmt.Fprintf(p.stdout, "  would write %s (%d bytes)\n", KeyStyle.Render(w.Path), len(w.Data))
		}
		return nil
	}

	fmt.Fprintf(p.stdout, "%s %s (%s)\n", SuccessStyle.Render("Published"), res.Version, res.Stamp)
	for _, path := range res.Written {
		fmt.Fprintf(p.stdout, "  %s\n", KeyStyle.Render(path))
	}
	return nil
}

// publishError adds remediation hints to a pipeline failure.
func publishError(err error, req publish.Request) error {
	ctx := issue.NewErrorContext().WithOperation("publish specification")
	stage, ok := publish.FailedStage(err)
	if !ok {
		return ctx.Wrap(err).BuildError()
	}
	switch stage {
	case publish.StageLoadSpec:
		ctx.WithResource(req.Details.SourcePath).
			WithSuggestion("Check the source setting or pass --source")
	case publish.StageFetchIndex:
		ctx.WithResource(req.IndexFile).
			WithSuggestion("Make sure the distribution branch contains " + req.IndexFile)
	case publish.StageMergeIndex:
		ctx.WithResource(req.IndexFile).
			WithSuggestion("Fix " + req.IndexFile + " on the distribution branch, or repair a local copy with 'specpub index merge'")
	case publish.StageWriteIndex, publish.StageWriteRelease, publish.StageWriteLatest:
		ctx.WithSuggestion("Check out the distribution branch into the target directory before publishing")
	}
	return ctx.Wrap(err).BuildError()
}
