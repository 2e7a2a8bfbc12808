// SPDX-License-Identifier: MPL-2.0

// Package publish writes a build's specification artifacts and, for release
// builds, the merged version index.
//
// A Publisher runs a fixed sequence of named stages (see Plan). The remote
// index is fetched and merged before any local file is written, and the
// latest-channel artifact is always written last. There is no rollback: a
// failing stage leaves earlier writes in place.
//
// All I/O goes through three narrow interfaces (Reader, Writer, Fetcher) so
// the pipeline can run against in-memory fakes.
package publish
