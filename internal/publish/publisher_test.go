// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/specpub/specpub/internal/hosting"
	"github.com/specpub/specpub/internal/release"
	"github.com/specpub/specpub/internal/specdoc"
	"github.com/specpub/specpub/internal/versionindex"

	"gopkg.in/yaml.v3"
)

const (
	testCommit = "0123456789abcdef0123456789abcdef01234567"
	sourcePath = "spec/openapi.yaml"
	sourceSpec = "openapi: 3.0.3\nversion: 0.0.0\ninfo:\n  title: Pets\n"
)

type (
	memReader map[string]string

	fakeFetcher struct {
		data  string
		err   error
		calls []string
	}

	failingWriter struct {
		Recorder
		failOn string
	}
)

func (m memReader) ReadText(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(data), nil
}

func (f *fakeFetcher) FetchText(_ context.Context, path string) ([]byte, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.data), nil
}

func (w *failingWriter) WriteText(path string, data []byte) error {
	if path == w.failOn {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}
	return w.Recorder.WriteText(path, data)
}

func newRequest(t *testing.T, ref string) Request {
	t.Helper()
	details, err := release.NewDetails(ref, sourcePath, release.Target{
		Dir:          "site",
		Prefix:       "openapi",
		DevBranchRef: "refs/heads/main",
	})
	if err != nil {
		t.Fatalf("NewDetails() returned unexpected error: %v", err)
	}
	return Request{
		Details:          details,
		Commit:           testCommit,
		IndexFile:        "versions.json",
		IndexDestination: filepath.Join("site", "versions.json"),
		VersionField:     specdoc.DefaultVersionField,
	}
}

func versionOf(t *testing.T, data []byte) string {
	t.Helper()
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding written spec: %v", err)
	}
	s, _ := doc["version"].(string)
	return s
}

func writtenPaths(r *Recorder) []string {
	var paths []string
	for _, w := range r.Writes() {
		paths = append(paths, w.Path)
	}
	return paths
}

func TestPlan(t *testing.T) {
	t.Parallel()

	latest := Plan(release.Details{Version: release.Latest})
	if !slices.Equal(latest, []Stage{StageLoadSpec, StageStamp, StageWriteLatest}) {
		t.Errorf("latest plan = %v", latest)
	}

	rel := Plan(release.Details{Version: "v1", IsRelease: true})
	if rel[len(rel)-1] != StageWriteLatest {
		t.Errorf("release plan must end with %s, got %v", StageWriteLatest, rel)
	}
	idx := slices.Index(rel, StageWriteIndex)
	if idx < 0 || idx > slices.Index(rel, StageWriteRelease) {
		t.Errorf("index must be written before the release spec: %v", rel)
	}
	if slices.Index(rel, StageFetchIndex) > slices.Index(rel, StageWriteIndex) {
		t.Errorf("index must be fetched before it is written: %v", rel)
	}
}

func TestPublish_DevBranch(t *testing.T) {
	t.Parallel()

	rec := &Recorder{}
	fetcher := &fakeFetcher{}
	p := NewPublisher(memReader{sourcePath: sourceSpec}, rec, WithFetcher(fetcher))

	res, err := p.Publish(context.Background(), newRequest(t, "refs/heads/main"))
	if err != nil {
		t.Fatalf("Publish() returned unexpected error: %v", err)
	}

	wantPath := filepath.Join("site", "openapi.latest.yaml")
	if got := writtenPaths(rec); !slices.Equal(got, []string{wantPath}) {
		t.Errorf("written = %v, want [%s]", got, wantPath)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("latest builds must not fetch the index, got %v", fetcher.calls)
	}
	if res.Index != nil {
		t.Error("latest builds must not produce an index")
	}
	if res.Stamp != "latest-01234567" {
		t.Errorf("stamp = %q, want latest-01234567", res.Stamp)
	}

	data, _ := rec.Last(wantPath)
	if got := versionOf(t, data); got != "latest-01234567" {
		t.Errorf("written version = %q, want latest-01234567", got)
	}
}

func TestPublish_Tag(t *testing.T) {
	t.Parallel()

	prior := `{"v2.2.0":{"spec":"v2.2.0","source":"v2.2.0"},"stable":{"spec":"v2.2.0","source":"v2.2.0"}}`
	rec := &Recorder{}
	fetcher := &fakeFetcher{data: prior}
	p := NewPublisher(memReader{sourcePath: sourceSpec}, rec, WithFetcher(fetcher))

	res, err := p.Publish(context.Background(), newRequest(t, "refs/tags/v2.3.0"))
	if err != nil {
		t.Fatalf("Publish() returned unexpected error: %v", err)
	}

	if !slices.Equal(fetcher.calls, []string{"versions.json"}) {
		t.Errorf("fetch calls = %v, want [versions.json]", fetcher.calls)
	}

	indexPath := filepath.Join("site", "versions.json")
	releasePath := filepath.Join("site", "openapi.v2.3.0.yaml")
	latestPath := filepath.Join("site", "openapi.latest.yaml")
	wantOrder := []string{indexPath, releasePath, latestPath}
	if got := writtenPaths(rec); !slices.Equal(got, wantOrder) {
		t.Errorf("write order = %v, want %v", got, wantOrder)
	}
	if !slices.Equal(res.Written, wantOrder) {
		t.Errorf("Result.Written = %v, want %v", res.Written, wantOrder)
	}
	if !slices.Equal(res.Stages, Plan(newRequest(t, "refs/tags/v2.3.0").Details)) {
		t.Errorf("stages = %v", res.Stages)
	}

	for _, path := range []string{releasePath, latestPath} {
		data, _ := rec.Last(path)
		if got := versionOf(t, data); got != "v2.3.0" {
			t.Errorf("%s version = %q, want v2.3.0", path, got)
		}
	}

	data, _ := rec.Last(indexPath)
	ix, err := versionindex.Parse(data)
	if err != nil {
		t.Fatalf("written index does not parse: %v", err)
	}
	want := versionindex.RecordFor("v2.3.0")
	for _, key := range []release.Version{"v2.3.0", versionindex.Stable} {
		if rec, _ := ix.Get(key); rec != want {
			t.Errorf("index[%s] = %+v, want %+v", key, rec, want)
		}
	}
	if rec, ok := ix.Get("v2.2.0"); !ok || rec != versionindex.RecordFor("v2.2.0") {
		t.Errorf("prior entry lost: %+v, %v", rec, ok)
	}
	if !strings.HasPrefix(string(data), "{\n \"v2.3.0\": {\n  \"spec\"") {
		t.Errorf("index not written with one-space indent:\n%s", data)
	}
}

func TestPublish_FetchNotFoundWritesNothing(t *testing.T) {
	t.Parallel()

	rec := &Recorder{}
	fetcher := &fakeFetcher{err: &hosting.StatusError{Path: "versions.json", StatusCode: 404}}
	p := NewPublisher(memReader{sourcePath: sourceSpec}, rec, WithFetcher(fetcher))

	_, err := p.Publish(context.Background(), newRequest(t, "refs/tags/v2.3.0"))
	if !errors.Is(err, ErrRemoteFetch) {
		t.Fatalf("Publish() error = %v, want ErrRemoteFetch", err)
	}
	if !hosting.IsNotFound(err) {
		t.Errorf("cause should remain inspectable, got %v", err)
	}
	if stage, _ := FailedStage(err); stage != StageFetchIndex {
		t.Errorf("failed stage = %q, want %q", stage, StageFetchIndex)
	}
	if n := len(rec.Writes()); n != 0 {
		t.Errorf("no file may be written after a failed fetch, got %d writes", n)
	}
}

func TestPublish_IndexFormatErrorWritesNothing(t *testing.T) {
	t.Parallel()

	rec := &Recorder{}
	p := NewPublisher(memReader{sourcePath: sourceSpec}, rec, WithFetcher(&fakeFetcher{data: `["v1"]`}))

	_, err := p.Publish(context.Background(), newRequest(t, "refs/tags/v2.3.0"))
	if !errors.Is(err, ErrIndexFormat) {
		t.Fatalf("Publish() error = %v, want ErrIndexFormat", err)
	}
	if stage, _ := FailedStage(err); stage != StageMergeIndex {
		t.Errorf("failed stage = %q, want %q", stage, StageMergeIndex)
	}
	if n := len(rec.Writes()); n != 0 {
		t.Errorf("no file may be written after a format error, got %d writes", n)
	}
}

func TestPublish_SourceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		files  memReader
		target error
	}{
		{"missing", memReader{}, ErrSpecNotFound},
		{"malformed", memReader{sourcePath: "openapi: [3\n"}, ErrSpecParse},
		{"not a mapping", memReader{sourcePath: "- a\n"}, ErrSpecParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &Recorder{}
			fetcher := &fakeFetcher{data: "{}"}
			p := NewPublisher(tt.files, rec, WithFetcher(fetcher))

			_, err := p.Publish(context.Background(), newRequest(t, "refs/tags/v1.0.0"))
			if !errors.Is(err, tt.target) {
				t.Fatalf("Publish() error = %v, want %v", err, tt.target)
			}
			if stage, _ := FailedStage(err); stage != StageLoadSpec {
				t.Errorf("failed stage = %q, want %q", stage, StageLoadSpec)
			}
			if len(fetcher.calls) != 0 || len(rec.Writes()) != 0 {
				t.Error("nothing may be fetched or written when the source cannot be loaded")
			}
		})
	}
}

func TestPublish_ReleaseWriteFailureLeavesIndex(t *testing.T) {
	t.Parallel()

	releasePath := filepath.Join("site", "openapi.v2.3.0.yaml")
	w := &failingWriter{failOn: releasePath}
	p := NewPublisher(memReader{sourcePath: sourceSpec}, w, WithFetcher(&fakeFetcher{data: "{}"}))

	res, err := p.Publish(context.Background(), newRequest(t, "refs/tags/v2.3.0"))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("Publish() error = %v, want ErrWrite", err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("cause should remain inspectable, got %v", err)
	}
	if stage, _ := FailedStage(err); stage != StageWriteRelease {
		t.Errorf("failed stage = %q, want %q", stage, StageWriteRelease)
	}

	indexPath := filepath.Join("site", "versions.json")
	if got := writtenPaths(&w.Recorder); !slices.Equal(got, []string{indexPath}) {
		t.Errorf("written = %v, want only the index", got)
	}
	if !slices.Equal(res.Written, []string{indexPath}) {
		t.Errorf("Result.Written = %v, want only the index", res.Written)
	}
}

func TestPublish_LatestRequiresCommit(t *testing.T) {
	t.Parallel()

	req := newRequest(t, "refs/heads/main")
	req.Commit = ""
	p := NewPublisher(memReader{sourcePath: sourceSpec}, &Recorder{})

	if _, err := p.Publish(context.Background(), req); !errors.Is(err, release.ErrMissingCommit) {
		t.Errorf("Publish() error = %v, want ErrMissingCommit", err)
	}
}

func TestPublish_ReleaseRequiresFetcher(t *testing.T) {
	t.Parallel()

	p := NewPublisher(memReader{sourcePath: sourceSpec}, &Recorder{})
	if _, err := p.Publish(context.Background(), newRequest(t, "refs/tags/v1")); !errors.Is(err, ErrNoFetcher) {
		t.Errorf("Publish() error = %v, want ErrNoFetcher", err)
	}
}

func TestPublish_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &Recorder{}
	p := NewPublisher(memReader{sourcePath: sourceSpec}, rec)
	_, err := p.Publish(ctx, newRequest(t, "refs/heads/main"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish() error = %v, want context.Canceled", err)
	}
	if len(rec.Writes()) != 0 {
		t.Error("canceled run must not write")
	}
}

func TestPublish_NestedVersionField(t *testing.T) {
	t.Parallel()

	req := newRequest(t, "refs/tags/v3.0.0")
	req.VersionField = "info.version"
	rec := &Recorder{}
	p := NewPublisher(memReader{sourcePath: sourceSpec}, rec, WithFetcher(&fakeFetcher{data: "{}"}))

	if _, err := p.Publish(context.Background(), req); err != nil {
		t.Fatalf("Publish() returned unexpected error: %v", err)
	}

	data, _ := rec.Last(filepath.Join("site", "openapi.latest.yaml"))
	var doc struct {
		Version string `yaml:"version"`
		Info    struct {
			Version string `yaml:"version"`
		} `yaml:"info"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding written spec: %v", err)
	}
	if doc.Info.Version != "v3.0.0" || doc.Version != "0.0.0" {
		t.Errorf("got version=%q info.version=%q", doc.Version, doc.Info.Version)
	}
}

func TestStageError_Message(t *testing.T) {
	t.Parallel()

	err := &StageError{Stage: StageWriteLatest, Err: fmt.Errorf("boom")}
	if got := err.Error(); got != "write-latest: boom" {
		t.Errorf("Error() = %q", got)
	}
}
