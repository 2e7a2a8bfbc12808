// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	fields, err := cueutil.Decode[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename("specpub.cue"),
//	    cueutil.WithConcrete(false),
//	)
//
// Errors carry the file name and the path of the offending field, e.g.
// "specpub.cue: repository: invalid value".
package cueutil
