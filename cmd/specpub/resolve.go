// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/specpub/specpub/internal/config"
	"github.com/specpub/specpub/internal/publish"
	"github.com/specpub/specpub/internal/release"

	"github.com/spf13/cobra"
)

const (
	channelRelease = "release"
	channelLatest  = "latest"
)

// resolution is what a publish run with the current configuration would do.
type resolution struct {
	Ref              string          `json:"ref"`
	Version          release.Version `json:"version"`
	Channel          string          `json:"channel"`
	Recognized       bool            `json:"recognized"`
	Stamp            string          `json:"stamp,omitempty"`
	Destinations     []string        `json:"destinations"`
	IndexDestination string          `json:"index_destination,omitempty"`
	Stages           []publish.Stage `json:"stages"`
}

func newResolveCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the version and destinations of the current build",
		Long: `Classify the build reference and print the version, channel, stamp and
destination paths a publish run would use. Nothing is read or written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return app.fail(cmd, err)
			}
			res, err := resolve(cfg)
			if err != nil {
				return app.fail(cmd, err)
			}
			if asJSON {
				return writeJSON(app.stdout, res)
			}
			printResolution(app.stdout, res)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "print the resolution as JSON")

	return cmd
}

func resolve(cfg *config.Config) (resolution, error) {
	d, err := cfg.Details()
	if err != nil {
		return resolution{}, err
	}
	res := resolution{
		Ref:          d.Ref,
		Version:      d.Version,
		Channel:      channelLatest,
		Recognized:   d.Recognized,
		Destinations: d.Destinations(),
		Stages:       publish.Plan(d),
	}
	if d.IsRelease {
		res.Channel = channelRelease
		res.IndexDestination = cfg.IndexDestination()
	}
	// A missing commit only matters to publish; resolve leaves the stamp empty.
	if stamp, err := d.Version.Stamp(cfg.Commit); err == nil {
		res.Stamp = stamp
	}
	return res, nil
}

func printResolution(w io.Writer, res resolution) {
	row := func(key, value string) {
		fmt.Fprintf(w, "%s %s\n", keyColumnStyle.Render(key), value)
	}
	row("ref", res.Ref)
	if !res.Recognized {
		row("", SubtitleStyle.Render("(not the dev branch or a tag; publishing as latest)"))
	}
	row("version", res.Version.String())
	row("channel", res.Channel)
	if res.Stamp != "" {
		row("stamp", res.Stamp)
	} else {
		row("stamp", SubtitleStyle.Render("(commit unknown)"))
	}
	for _, dest := range res.Destinations {
		row("destination", dest)
	}
	if res.IndexDestination != "" {
		row("index", res.IndexDestination)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
