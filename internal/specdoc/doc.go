// SPDX-License-Identifier: MPL-2.0

// Package specdoc loads, stamps and re-encodes API specification documents.
//
// The document schema is opaque here: only the version field is read or
// written. The YAML node tree is kept so key order and comments of the
// source survive the rewrite.
package specdoc
