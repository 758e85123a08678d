// Package elastic implements the index.Client contract over the
// Elasticsearch-compatible HTTP wire protocol.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/syncdex/internal/index"
)

// Compile-time check: Client implements index.Client.
var _ index.Client = (*Client)(nil)

// Config holds connection parameters for the engine.
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
	// ScrollPageSize is the batch size of scan requests.
	ScrollPageSize int
	// ScrollKeepalive is the context lifetime of a scan between batches.
	ScrollKeepalive time.Duration
}

// Client talks to one Elasticsearch-compatible cluster.
type Client struct {
	base            string
	username        string
	password        string
	httpc           *http.Client
	scrollPageSize  int
	scrollKeepalive time.Duration
}

// NewClient creates an engine client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elastic: url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("elastic: invalid url %q: %w", cfg.URL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.ScrollPageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	keepalive := cfg.ScrollKeepalive
	if keepalive <= 0 {
		keepalive = time.Minute
	}
	return &Client{
		base:            strings.TrimRight(cfg.URL, "/"),
		username:        cfg.Username,
		password:        cfg.Password,
		httpc:           &http.Client{Timeout: timeout},
		scrollPageSize:  pageSize,
		scrollKeepalive: keepalive,
	}, nil
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.send(ctx, http.MethodGet, "/", "", nil, nil); err != nil {
		return &index.Error{Op: index.OpPing, Err: err}
	}
	return nil
}

// send performs one HTTP round trip, decoding a JSON response into out when
// out is non-nil. A non-2xx status is returned as an engineError.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &engineError{Status: resp.StatusCode, Body: payload}
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w: %w", method, path, index.ErrUnexpected, err)
		}
	}
	return nil
}

// sendJSON marshals body as JSON and performs the round trip.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	return c.send(ctx, method, path, "application/json", payload, out)
}

// engineError is a non-2xx engine response.
type engineError struct {
	Status int
	Body   []byte
}

func (e *engineError) Error() string {
	return fmt.Sprintf("engine returned %d: %s", e.Status, truncate(e.Body, 256))
}

// Unwrap maps engine statuses onto the package sentinels so callers can use
// errors.Is without inspecting HTTP codes.
func (e *engineError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		if bytes.Contains(e.Body, []byte("index_not_found_exception")) {
			return index.ErrIndexMissing
		}
		return index.ErrNotFound
	case http.StatusBadRequest:
		if bytes.Contains(e.Body, []byte("resource_already_exists_exception")) {
			return index.ErrIndexExists
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func escape(s string) string {
	return url.PathEscape(s)
}
