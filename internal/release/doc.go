// SPDX-License-Identifier: MPL-2.0

// Package release decides the release identity of a build.
//
// It maps a source-control reference to a version label, classifies that
// label into the "latest" or release channel, and computes the destination
// file names for each channel. Everything here is pure: no I/O, no ambient
// state. The publish package composes these pieces into a pipeline.
package release
