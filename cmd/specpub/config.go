// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/specpub/specpub/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `specpub config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect specpub configuration",
		Long: `Inspect specpub configuration.

Values are layered, highest precedence first: command-line flags,
SPECPUB_* environment variables, CI variables (GITHUB_REF, GITHUB_SHA,
GITHUB_REPOSITORY, GITHUB_API_URL, GITHUB_TOKEN), the config file
(--config or ./` + config.ConfigFileName + `), built-in defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration and where each value comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Explain(cmd.Context(), app.loadOptions(cmd))
			if err != nil {
				return app.fail(cmd, err)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
			fmt.Fprintln(app.stdout)
			path := config.ResolvePath(app.loadOptions(cmd))
			if path == "" {
				path = SubtitleStyle.Render("(none, using defaults)")
			}
			fmt.Fprintf(app.stdout, "%s %s\n\n", keyColumnStyle.Render("config file"), path)
			for _, s := range settings {
				value := s.Value
				if value == "" {
					value = SubtitleStyle.Render("(unset)")
				}
				fmt.Fprintf(app.stdout, "%s %s %s\n",
					keyColumnStyle.Render(s.Key), value, SubtitleStyle.Render("["+s.Origin+"]"))
			}
			return nil
		},
	})

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE, TOML or YAML",
		Long: `Output effective configuration. The CUE output is a valid config file.
The token is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := config.Format(format).Validate(); err != nil {
				return app.fail(cmd, err)
			}
			cfg, err := app.loadConfig(cmd)
			if err != nil {
				return app.fail(cmd, err)
			}
			out, err := config.Dump(cfg, config.Format(format))
			if err != nil {
				return app.fail(cmd, err)
			}
			_, err = app.stdout.Write(out)
			return err
		},
	}
	dumpCmd.Flags().String("format", string(config.FormatCUE), "output format: cue, toml or yaml")
	cfgCmd.AddCommand(dumpCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ResolvePath(app.loadOptions(cmd))
			if path == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no config file)"))
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}
