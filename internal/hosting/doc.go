// SPDX-License-Identifier: MPL-2.0

// Package hosting reads files from the repository hosting API.
//
// Only the GitHub REST contents endpoint is implemented. The client fetches
// raw file content at a fixed branch, which is how the published version
// index is read back before a release build merges into it.
package hosting
