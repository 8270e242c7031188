// Package github fetches repository metadata from the GitHub REST API.
// It is the upstream of the repository cache: one GET per fetch, bounded by a
// timeout, with failures classified into the repositories error sentinels.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"Repocache/internal/core/repositories"
)

const (
	// DefaultBaseURL is the GitHub repos endpoint
	DefaultBaseURL = "https://api.github.com/repos"

	// DefaultTimeout bounds a single upstream request
	DefaultTimeout = 2 * time.Second

	// DefaultUserAgent identifies the cache to GitHub, which rejects requests without one
	DefaultUserAgent = "repocache/1.0"

	apiVersion = "2022-11-28"

	// maxResponseBytes caps the response body read (repository payloads are a few KB)
	maxResponseBytes = 1 << 20
)

// Client implements repositories.Fetcher against the GitHub REST API.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	baseURL    string
	userAgent  string
	token      string
	timeout    time.Duration
	ttlSeconds float64
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithToken authenticates requests with a GitHub token (raises the rate limit)
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHTTPClient replaces the pooled HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithDefaultTTL sets the ttl_seconds assigned to fetched records
func WithDefaultTTL(ttlSeconds float64) ClientOption {
	return func(c *Client) {
		if repositories.ValidTTL(ttlSeconds) {
			c.ttlSeconds = ttlSeconds
		}
	}
}

// WithClock overrides the clock used for last_refreshed_at
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a GitHub client for baseURL (e.g. https://api.github.com/repos).
// A non-positive timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		httpClient: cleanhttp.DefaultPooledClient(),
		now:        time.Now,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  DefaultUserAgent,
		timeout:    timeout,
		ttlSeconds: repositories.DefaultTTLSeconds,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// repositoryResponse is the subset of GET /repos/{owner}/{repo} the cache stores
type repositoryResponse struct {
	Description     *string `json:"description"`
	StargazersCount *int    `json:"stargazers_count"`
	FullName        string  `json:"full_name"`
	CloneURL        string  `json:"clone_url"`
	CreatedAt       string  `json:"created_at"`
}

// Fetch retrieves the repository identified by "owner/repo".
// Returns:
//   - ErrUpstreamNotFound if GitHub responds 404
//   - ErrUpstreamTimeout if the request exceeds the configured timeout
//   - ErrUpstreamUnavailable on transport errors or any other non-200 status
//   - ErrMalformedResponse if the body does not map onto a record
func (c *Client) Fetch(ctx context.Context, identity string) (*repositories.Repository, error) {
	owner, repo, err := repositories.SplitIdentity(identity)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", repositories.ErrUpstreamUnavailable, err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeoutError(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", repositories.ErrUpstreamTimeout, identity, c.timeout)
		}
		return nil, fmt.Errorf("%w: %v", repositories.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", repositories.ErrUpstreamNotFound, identity)
	default:
		// Limit error body to 1KB
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: unexpected status %d: %s",
			repositories.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload repositoryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		if isTimeoutError(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading body for %s", repositories.ErrUpstreamTimeout, identity)
		}
		return nil, fmt.Errorf("%w: failed to decode response: %v", repositories.ErrMalformedResponse, err)
	}

	return c.mapResponse(&payload)
}

// mapResponse converts the GitHub payload into a cache record
func (c *Client) mapResponse(payload *repositoryResponse) (*repositories.Repository, error) {
	if payload.FullName == "" {
		return nil, fmt.Errorf("%w: missing full_name", repositories.ErrMalformedResponse)
	}
	if payload.CloneURL == "" {
		return nil, fmt.Errorf("%w: missing clone_url", repositories.ErrMalformedResponse)
	}
	if payload.StargazersCount == nil {
		return nil, fmt.Errorf("%w: missing stargazers_count", repositories.ErrMalformedResponse)
	}
	createdAt, err := parseTimestamp(payload.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", repositories.ErrMalformedResponse, err)
	}

	record := &repositories.Repository{
		Identity:        payload.FullName,
		Description:     payload.Description,
		CloneURL:        payload.CloneURL,
		Stars:           *payload.StargazersCount,
		CreatedAt:       createdAt,
		LastRefreshedAt: c.now().UTC(),
		TTLSeconds:      c.ttlSeconds,
	}

	if err := record.Update().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrMalformedResponse, err)
	}

	return record, nil
}

// timestampLayouts are tried in order; GitHub sends RFC 3339 but zone-less values are accepted as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// isTimeoutError checks if the error is a timeout-related error
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
