// Package signedurl resolves stored media paths into signed read URLs through
// the public media endpoint.
package signedurl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// EndpointPath is the server route that signs a single path.
const EndpointPath = "/api/v1/media/signed-url"

// Result is one entry of a batch resolution, aligned with the input index.
type Result struct {
	Path  string  `json:"path"`
	URL   *string `json:"url"`
	Error string  `json:"error,omitempty"`
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("signed url request failed with status %d", e.Status)
	}
	return fmt.Sprintf("signed url request failed with status %d: %s", e.Status, e.Message)
}

type signedURLResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// Concurrency caps in-flight requests in ResolveMany; <= 0 means one
	// goroutine per path.
	Concurrency int
	// Token is sent as a bearer token when set.
	Token string
}

type Client struct {
	http        *resty.Client
	concurrency int
}

// New creates a client for the server at baseURL (scheme and host, no path).
func New(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "signage-signedurl/1.0")
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}
	return &Client{http: rc, concurrency: opts.Concurrency}
}

// Resolve asks the server to sign path. Every call hits the server; URLs are
// never cached since they expire.
func (c *Client) Resolve(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}

	var (
		result  signedURLResponse
		failure errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("path", path).
		SetResult(&result).
		SetError(&failure).
		Get(EndpointPath)
	if err != nil {
		return "", fmt.Errorf("request signed url for %q: %w", path, err)
	}
	if resp.IsError() {
		return "", &StatusError{Status: resp.StatusCode(), Message: failure.Error}
	}
	if result.URL == "" {
		return "", fmt.Errorf("signed url response for %q has no url", path)
	}
	return result.URL, nil
}

// ResolveMany resolves every path concurrently and waits for all of them.
// A failing path yields a nil URL and an error message at its own index;
// it never fails the batch.
func (c *Client) ResolveMany(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, path := range paths {
		g.Go(func() error {
			results[i].Path = path
			url, err := c.Resolve(ctx, path)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].URL = &url
			return nil
		})
	}
	_ = g.Wait()
	return results
}
