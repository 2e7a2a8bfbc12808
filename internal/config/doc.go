// SPDX-License-Identifier: MPL-2.0

// Package config builds the immutable specpub configuration.
//
// Values are layered with Viper, highest precedence first: command-line
// flags, SPECPUB_* environment variables, CI environment variables
// (GITHUB_REF, GITHUB_SHA, ...), the CUE config file, built-in defaults.
// The config file is validated against an embedded CUE schema
// (config_schema.cue) before it is merged.
//
// Load is the only place that reads the environment. Everything downstream
// receives a Config value.
package config
