// Package remote fetches the version matrix and the devcontainer.json
// template from the distribution endpoint.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/racecarparts/devcontainer/internal/matrix"
)

const (
	// MatrixPath is the path of the version matrix under the base URL.
	MatrixPath = "versions.json"

	// TemplatePath is the path of the devcontainer template under the base URL.
	TemplatePath = "devcontainer.json"

	defaultTimeout = 30 * time.Second
)

// Client fetches distribution resources over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Client) {
		r.httpClient = c
	}
}

// WithTimeout sets the request timeout. It applies to the client NewClient
// constructs itself; a client supplied via WithHTTPClient keeps its own
// timeout settings.
func WithTimeout(d time.Duration) Option {
	return func(r *Client) {
		r.timeout = d
	}
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c
}

// FetchMatrix retrieves and parses the version matrix.
func (c *Client) FetchMatrix(ctx context.Context) (*matrix.Matrix, error) {
	data, err := c.fetch(ctx, MatrixPath)
	if err != nil {
		return nil, err
	}
	return matrix.Parse(data)
}

// FetchTemplate retrieves the raw devcontainer.json template.
func (c *Client) FetchTemplate(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, TemplatePath)
}

// fetch performs one GET and returns the body.
// A non-2xx status or an empty body is an error; the installer has nothing
// useful to do with either.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Message: "failed to create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Message: "reading response body", Err: err}
	}

	if len(data) == 0 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: "empty response body"}
	}

	return data, nil
}
