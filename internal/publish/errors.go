// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"errors"
	"fmt"

	"github.com/specpub/specpub/internal/specdoc"
	"github.com/specpub/specpub/internal/versionindex"
)

var (
	// ErrRemoteFetch marks a failed read of the remote version index.
	ErrRemoteFetch = errors.New("remote fetch failed")

	// ErrIndexFormat marks index content that is not a mapping of records.
	ErrIndexFormat = versionindex.ErrFormat

	// ErrSpecNotFound marks a missing source specification.
	ErrSpecNotFound = errors.New("specification not found")

	// ErrSpecParse marks a malformed source specification.
	ErrSpecParse = specdoc.ErrParse

	// ErrWrite marks a destination that could not be written.
	ErrWrite = errors.New("filesystem write failed")

	// ErrNoFetcher is returned when a release build has no way to read the
	// remote index.
	ErrNoFetcher = errors.New("release builds require a remote index fetcher")
)

type (
	// RemoteFetchError wraps a failed index fetch.
	RemoteFetchError struct {
		Path string
		Err  error
	}

	// NotFoundError is returned when the source specification is absent.
	NotFoundError struct {
		Path string
		Err  error
	}

	// WriteError wraps a failed destination write.
	WriteError struct {
		Path string
		Err  error
	}

	// StageError records which pipeline stage failed.
	StageError struct {
		Stage Stage
		Err   error
	}
)

// Error implements the error interface.
func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetching remote index %s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrRemoteFetch and the transport cause.
func (e *RemoteFetchError) Unwrap() []error { return []error{ErrRemoteFetch, e.Err} }

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("specification %s not found", e.Path)
}

// Unwrap exposes both ErrSpecNotFound and the file-system cause.
func (e *NotFoundError) Unwrap() []error { return []error{ErrSpecNotFound, e.Err} }

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrWrite and the file-system cause.
func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the stage's error.
func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage that produced err, if any.
func FailedStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
