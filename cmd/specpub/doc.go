// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the specpub command tree.
//
// NewRootCommand builds the cobra tree around an App, the composition root
// holding configuration loading, the remote index fetcher and the file
// system. Execute runs it through fang for end users; tests drive
// NewRootCommand directly with fakes.
package cmd
