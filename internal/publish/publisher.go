// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specpub/specpub/internal/release"
	"github.com/specpub/specpub/internal/specdoc"
	"github.com/specpub/specpub/internal/versionindex"

	"github.com/charmbracelet/log"
)

// Pipeline stages, in the order Plan returns them.
const (
	StageLoadSpec     Stage = "load-spec"
	StageFetchIndex   Stage = "fetch-index"
	StageMergeIndex   Stage = "merge-index"
	StageWriteIndex   Stage = "write-index"
	StageStamp        Stage = "stamp"
	StageWriteRelease Stage = "write-release"
	StageWriteLatest  Stage = "write-latest"
)

type (
	// Stage names one step of the publish pipeline.
	Stage string

	// Request is everything one build publishes. It is built once from
	// configuration and not modified by the Publisher.
	Request struct {
		Details release.Details
		// Commit is the triggering commit; required for latest builds.
		Commit string
		// IndexFile is the index path on the publishing target.
		IndexFile string
		// IndexDestination is the local path the merged index is written to.
		IndexDestination string
		// VersionField is the document field stamped with the version.
		VersionField specdoc.FieldPath
	}

	// Result describes a completed run.
	Result struct {
		Version release.Version
		// Stamp is the value written into the version field.
		Stamp string
		// Stages lists the stages that ran, in order.
		Stages []Stage
		// Written lists the paths written, in order.
		Written []string
		// Index is the merged index; nil for latest builds.
		Index *versionindex.Index
	}

	// Publisher runs the publish pipeline against injected I/O.
	Publisher struct {
		reader  Reader
		writer  Writer
		fetcher Fetcher
		logger  *log.Logger
	}

	// Option configures a Publisher during construction.
	Option func(*Publisher)

	// run holds the state passed between stages of one Publish call.
	run struct {
		req     Request
		doc     *specdoc.Document
		fetched []byte
		prior   *versionindex.Index
		result  Result
	}
)

// String returns the stage name.
func (s Stage) String() string { return string(s) }

// WithFetcher sets the remote index fetcher. Only release builds use it.
func WithFetcher(f Fetcher) Option {
	return func(p *Publisher) {
		p.fetcher = f
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPublisher creates a Publisher reading sources through r and writing
// artifacts through w.
func NewPublisher(r Reader, w Writer, opts ...Option) *Publisher {
	p := &Publisher{
		reader: r,
		writer: w,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns the stages a build with these details runs, in order.
// Index stages come before any spec write, and write-latest is always last.
func Plan(d release.Details) []Stage {
	if !d.IsRelease {
		return []Stage{StageLoadSpec, StageStamp, StageWriteLatest}
	}
	return []Stage{
		StageLoadSpec,
		StageFetchIndex,
		StageMergeIndex,
		StageWriteIndex,
		StageStamp,
		StageWriteRelease,
		StageWriteLatest,
	}
}

// Validate checks the request before any stage runs.
func (r Request) Validate() error {
	if err := r.Details.Version.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Details.SourcePath) == "" {
		return errors.New("source path is required")
	}
	if err := r.VersionField.Validate(); err != nil {
		return err
	}
	if r.Details.IsRelease {
		if strings.TrimSpace(r.IndexFile) == "" || strings.TrimSpace(r.IndexDestination) == "" {
			return errors.New("release builds require an index file and destination")
		}
		return nil
	}
	if strings.TrimSpace(r.Commit) == "" {
		return release.ErrMissingCommit
	}
	return nil
}

// Publish runs every stage of Plan(req.Details) in order and stops at the
// first failure. Writes completed before a failure are not undone.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid publish request: %w", err)
	}
	if req.Details.IsRelease && p.fetcher == nil {
		return nil, ErrNoFetcher
	}

	r := &run{
		req: req,
		result: Result{
			Version: req.Details.Version,
		},
	}

	p.logger.Info("publishing specification",
		"version", req.Details.Version,
		"release", req.Details.IsRelease,
		"source", req.Details.SourcePath)
	if !req.Details.Recognized {
		p.logger.Debug("reference matched neither the dev branch nor a tag; using latest", "ref", req.Details.Ref)
	}

	for _, stage := range Plan(req.Details) {
		if err := ctx.Err(); err != nil {
			return &r.result, &StageError{Stage: stage, Err: err}
		}
		p.logger.Debug("running stage", "stage", stage)
		if err := p.runStage(ctx, stage, r); err != nil {
			return &r.result, &StageError{Stage: stage, Err: err}
		}
		r.result.Stages = append(r.result.Stages, stage)
	}

	p.logger.Info("published", "version", r.result.Version, "files", len(r.result.Written))
	return &r.result, nil
}

func (p *Publisher) runStage(ctx context.Context, stage Stage, r *run) error {
	switch stage {
	case StageLoadSpec:
		return p.loadSpec(r)
	case StageFetchIndex:
		return p.fetchIndex(ctx, r)
	case StageMergeIndex:
		return p.mergeIndex(r)
	case StageWriteIndex:
		return p.writeIndex(r)
	case StageStamp:
		return p.stamp(r)
	case StageWriteRelease:
		return p.writeSpec(r, r.req.Details.ReleaseDestination)
	case StageWriteLatest:
		return p.writeSpec(r, r.req.Details.LatestDestination)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (p *Publisher) loadSpec(r *run) error {
	path := r.req.Details.SourcePath
	data, err := p.reader.ReadText(path)
	if err != nil {
		if isNotExist(err) {
			return &NotFoundError{Path: path, Err: err}
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := specdoc.Parse(path, data)
	if err != nil {
		return err
	}
	r.doc = doc
	return nil
}

func (p *Publisher) fetchIndex(ctx context.Context, r *run) error {
	data, err := p.fetcher.FetchText(ctx, r.req.IndexFile)
	if err != nil {
		return &RemoteFetchError{Path: r.req.IndexFile, Err: err}
	}
	p.logger.Debug("fetched version index", "path", r.req.IndexFile, "bytes", len(data))
	r.fetched = data
	return nil
}

func (p *Publisher) mergeIndex(r *run) error {
	prior, err := versionindex.Parse(r.fetched)
	if err != nil {
		return err
	}
	r.prior = prior

	v := r.req.Details.Version
	if cur, older := versionindex.OlderThanStable(r.prior, v); older {
		p.logger.Warn("release is older than the current stable version; stable will point at it anyway",
			"version", v, "stable", cur)
	}
	r.result.Index = versionindex.Merge(r.prior, v)
	return nil
}

func (p *Publisher) writeIndex(r *run) error {
	data, err := versionindex.Encode(r.result.Index)
	if err != nil {
		return err
	}
	return p.write(r, r.req.IndexDestination, data)
}

func (p *Publisher) stamp(r *run) error {
	value, err := r.req.Details.Version.Stamp(r.req.Commit)
	if err != nil {
		return err
	}
	stamped, err := r.doc.WithField(r.req.VersionField, value)
	if err != nil {
		return err
	}
	r.doc = stamped
	r.result.Stamp = value
	p.logger.Debug("stamped specification", "field", r.req.VersionField, "value", value)
	return nil
}

func (p *Publisher) writeSpec(r *run, path string) error {
	data, err := r.doc.Encode()
	if err != nil {
		return err
	}
	return p.write(r, path, data)
}

func (p *Publisher) write(r *run, path string, data []byte) error {
	if err := p.writer.WriteText(path, data); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	r.result.Written = append(r.result.Written, path)
	p.logger.Info("wrote", "path", path, "bytes", len(data))
	return nil
}
