// SPDX-License-Identifier: MPL-2.0

// Package versionindex models the persisted index of published versions.
//
// An Index maps version labels, plus the "stable" alias, to records that
// point at published spec files. Key order is preserved through decoding,
// merging and encoding so the written file diffs cleanly between builds.
package versionindex
