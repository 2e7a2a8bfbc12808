// SPDX-License-Identifier: MPL-2.0

package release

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTarget is the sentinel error wrapped by InvalidTargetError.
var ErrInvalidTarget = errors.New("invalid publish target")

type (
	// Target is the fixed publishing layout: where artifacts land and how
	// they are named.
	Target struct {
		// Dir is the local directory receiving the artifacts.
		Dir string
		// Prefix is the destination file base name, e.g. "openapi".
		Prefix string
		// DevBranchRef is the reference that maps to the latest channel,
		// e.g. "refs/heads/main".
		DevBranchRef string
	}

	// InvalidTargetError lists the blank fields of a Target.
	InvalidTargetError struct {
		Fields []string
	}

	// Details is the release identity of one build. It is computed once
	// from the triggering reference and never modified afterward.
	Details struct {
		SourcePath         string
		Ref                string
		Version            Version
		IsRelease          bool
		Recognized         bool // false when the reference fell back to Latest
		LatestDestination  string
		ReleaseDestination string
	}
)

// Validate reports blank Target fields.
func (t Target) Validate() error {
	var blank []string
	if strings.TrimSpace(t.Dir) == "" {
		blank = append(blank, "dir")
	}
	if strings.TrimSpace(t.Prefix) == "" {
		blank = append(blank, "prefix")
	}
	if strings.TrimSpace(t.DevBranchRef) == "" {
		blank = append(blank, "dev branch")
	}
	if len(blank) > 0 {
		return &InvalidTargetError{Fields: blank}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid publish target: blank %s", strings.Join(e.Fields, ", "))
}

// Unwrap returns ErrInvalidTarget for errors.Is() compatibility.
func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

// NewDetails classifies ref and resolves both destinations for sourcePath.
func NewDetails(ref, sourcePath string, target Target) (Details, error) {
	if err := target.Validate(); err != nil {
		return Details{}, err
	}

	version, recognized := ClassifyRef(ref, target.DevBranchRef)
	if err := version.Validate(); err != nil {
		return Details{}, err
	}

	return Details{
		SourcePath:         sourcePath,
		Ref:                ref,
		Version:            version,
		IsRelease:          version.IsRelease(),
		Recognized:         recognized,
		LatestDestination:  Resolve(sourcePath, Latest, target.Prefix, target.Dir),
		ReleaseDestination: Resolve(sourcePath, version, target.Prefix, target.Dir),
	}, nil
}

// Destinations returns the spec files this build writes, in write order:
// the release destination (release builds only) followed by the latest
// destination.
func (d Details) Destinations() []string {
	if d.IsRelease {
		return []string{d.ReleaseDestination, d.LatestDestination}
	}
	return []string{d.LatestDestination}
}
