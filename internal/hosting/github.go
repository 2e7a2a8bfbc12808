// SPDX-License-Identifier: MPL-2.0

package hosting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	// maxContentBytes is the upper bound on a fetched file (10 MB).
	maxContentBytes = 10 << 20

	// maxErrorBodyBytes bounds how much of an error response is read.
	maxErrorBodyBytes = 64 << 10
)

var (
	// ErrUnexpectedStatus is the sentinel error wrapped by StatusError.
	ErrUnexpectedStatus = errors.New("unexpected hosting API status")

	// ErrInvalidRepository is returned when a repository is not "owner/name".
	ErrInvalidRepository = errors.New("repository must have the form owner/name")
)

type (
	// StatusError is returned when the API answers with anything but 200.
	StatusError struct {
		Path       string
		StatusCode int
		Message    string // GitHub's "message" field, when present
	}

	// RateLimitError is returned when the API rate limit is exhausted.
	RateLimitError struct {
		Limit   int
		ResetAt time.Time
	}

	// GitHubClient fetches raw file content from one repository at one ref.
	GitHubClient struct {
		httpClient *http.Client
		owner      string
		repo       string
		ref        string // branch, tag or SHA; empty means the default branch
		baseURL    string
		token      string
		userAgent  string
	}

	// ClientOption configures a GitHubClient during construction.
	ClientOption func(*GitHubClient)
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fetching %s: HTTP %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetching %s: HTTP %d", e.Path, e.StatusCode)
}

// Unwrap returns ErrUnexpectedStatus for errors.Is() compatibility.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (limit %d, resets at %s)",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Unwrap returns ErrUnexpectedStatus; an exhausted quota is a non-200 answer.
func (e *RateLimitError) Unwrap() error { return ErrUnexpectedStatus }

// IsNotFound reports whether err is a 404 from the hosting API.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *GitHubClient) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the API base URL, e.g. for GitHub Enterprise or
// test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *GitHubClient) {
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sets a bearer token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(g *GitHubClient) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *GitHubClient) {
		g.userAgent = ua
	}
}

// WithRef pins reads to a branch, tag or commit.
func WithRef(ref string) ClientOption {
	return func(g *GitHubClient) {
		g.ref = ref
	}
}

// SplitRepository splits "owner/name".
func SplitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidRepository, repository)
	}
	return owner, repo, nil
}

// NewGitHubClient creates a client for repository ("owner/name").
// Defaults: baseURL=DefaultBaseURL, userAgent="specpub/dev",
// httpClient=http.DefaultClient, ref=default branch.
func NewGitHubClient(repository string, opts ...ClientOption) (*GitHubClient, error) {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}

	c := &GitHubClient{
		httpClient: http.DefaultClient,
		owner:      owner,
		repo:       repo,
		baseURL:    DefaultBaseURL,
		userAgent:  "specpub/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchText returns the raw content of path at the configured ref.
// Any status other than 200 is a *StatusError (or *RateLimitError).
func (c *GitHubClient) FetchText(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.doRequest(ctx, c.contentsURL(path))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if rlErr := checkRateLimit(resp); rlErr != nil {
		return nil, rlErr
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: reading body: %w", path, err)
	}
	if len(data) > maxContentBytes {
		return nil, fmt.Errorf("fetching %s: content exceeds %d bytes", path, maxContentBytes)
	}
	return data, nil
}

// contentsURL builds /repos/{owner}/{repo}/contents/{path}?ref={ref}.
func (c *GitHubClient) contentsURL(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}

	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), strings.Join(segs, "/"))
	if c.ref != "" {
		u += "?ref=" + url.QueryEscape(c.ref)
	}
	return u
}

// doRequest creates and executes a GET with the GitHub API headers.
func (c *GitHubClient) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.raw")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// checkRateLimit returns a RateLimitError when the response is a refusal
// and X-RateLimit-Remaining is zero.
func checkRateLimit(resp *http.Response) error {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	rem, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil || rem > 0 {
		return nil //nolint:nilerr // missing or malformed header is not a rate limit
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // best-effort header parsing
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // best-effort header parsing
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(resetUnix, 0)}
}

// errorMessage extracts GitHub's {"message": ...} from an error body.
func errorMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil || json.Unmarshal(data, &payload) != nil {
		return ""
	}
	return payload.Message
}
