// Package remote implements the HTTP client for the knowledge-graph API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/gebo/internal/apperr"
)

// APIError carries a non-2xx response: the status code and the raw body
// text, for error wrapping at the call site.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: API error %d: %s", e.Status, e.Body)
}

// Unwrap maps authentication and missing-object statuses onto the shared
// sentinels so callers can errors.Is against them.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.ErrNotAuthenticated
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	}
	return nil
}

// Response is the outcome of one transport request. Non-2xx statuses are
// returned here, never as a Go error: the caller inspects Status.
type Response struct {
	Status int
	Body   []byte
}

// JSON decodes the response body into target.
func (r *Response) JSON(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client talks to the remote API. Every request carries the bearer token
// and the API version header.
type Client struct {
	baseURL string
	token   string
	version string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, token, version string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		version: version,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Request executes one HTTP call. jsonBody, when non-nil, is encoded as
// the JSON request body. Transport-level failures return an error; HTTP
// error statuses do not.
func (c *Client) Request(ctx context.Context, method, path string, jsonBody any) (*Response, error) {
	var body io.Reader
	if jsonBody != nil {
		data, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, fmt.Errorf("remote: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.version != "" {
		req.Header.Set("X-Api-Version", c.version)
	}
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}

	c.logger.Debug("remote: request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// call is the typed-endpoint helper: it runs the request and converts a
// non-2xx status into an *APIError.
func (c *Client) call(ctx context.Context, method, path string, jsonBody, target any) error {
	resp, err := c.Request(ctx, method, path, jsonBody)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{Status: resp.Status, Body: strings.TrimSpace(string(resp.Body))}
	}
	if target == nil {
		return nil
	}
	return resp.JSON(target)
}
