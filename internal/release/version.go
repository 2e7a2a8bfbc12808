// SPDX-License-Identifier: MPL-2.0

package release

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// Latest is the mutable, always-overwritten channel label.
	Latest Version = "latest"

	// shortCommitLength is the number of commit-hash characters kept in a
	// non-release stamp.
	shortCommitLength = 8
)

var (
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version label")

	// ErrMissingCommit is returned when a non-release stamp is requested
	// without a commit hash.
	ErrMissingCommit = errors.New("commit hash is required for non-release builds")

	// tagRefPattern captures everything after refs/tags/, slashes included.
	tagRefPattern = regexp.MustCompile(`^refs/tags/(.+)$`)
)

type (
	// Version identifies a release channel point: either Latest or a
	// tag-derived label such as "v1.2.0". The zero value is invalid.
	Version string

	// InvalidVersionError is returned when a Version is empty or blank.
	InvalidVersionError struct {
		Value Version
	}
)

// String returns the label as a plain string.
func (v Version) String() string { return string(v) }

// IsRelease reports whether v belongs to the immutable release channel.
// Every label other than Latest is a release.
func (v Version) IsRelease() bool { return v != Latest }

// Validate returns an error if the label is empty or whitespace-only.
func (v Version) Validate() error {
	if strings.TrimSpace(string(v)) == "" {
		return &InvalidVersionError{Value: v}
	}
	return nil
}

// Stamp returns the value written into the document's version field.
// Release labels are stamped literally. Latest gets a short commit suffix
// so the artifact stays traceable to one build while its file name stays
// stable.
func (v Version) Stamp(commit string) (string, error) {
	if v.IsRelease() {
		return string(v), nil
	}
	commit = strings.TrimSpace(commit)
	if commit == "" {
		return "", ErrMissingCommit
	}
	return fmt.Sprintf("%s-%s", v, ShortCommit(commit)), nil
}

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version label %q: must not be empty", e.Value)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// ShortCommit truncates a commit hash to its first 8 characters.
func ShortCommit(commit string) string {
	if len(commit) <= shortCommitLength {
		return commit
	}
	return commit[:shortCommitLength]
}

// Classify maps a raw reference to a version label.
//
// The development branch maps to Latest. refs/tags/<name> maps to <name>.
// Anything else also maps to Latest; use ClassifyRef when the caller needs
// to know the fallback was taken.
func Classify(ref, devBranchRef string) Version {
	v, _ := ClassifyRef(ref, devBranchRef)
	return v
}

// ClassifyRef is Classify plus a flag reporting whether the reference was
// recognized. An unrecognized reference still degrades to Latest.
func ClassifyRef(ref, devBranchRef string) (Version, bool) {
	if ref == devBranchRef {
		return Latest, true
	}
	if m := tagRefPattern.FindStringSubmatch(ref); m != nil {
		return Version(m[1]), true
	}
	return Latest, false
}
