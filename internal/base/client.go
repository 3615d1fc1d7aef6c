// Package base provides the HTTP plumbing shared by the wiki client: a
// long-lived http.Client, the fixed request headers and one-shot GETs that
// classify transport failures.
package base

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	apierrors "github.com/olgasafonova/wikiread-mcp-server/internal/errors"
)

const (
	// DefaultTimeout for wiki requests
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is the static browser user agent sent on every request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:90.0) Gecko/20100101 Firefox/90.0"

	// MaxBodySize is the default cap on a response body. Larger bodies fail
	// instead of being cut short.
	MaxBodySize = 16 << 20
)

// Client provides common HTTP client infrastructure.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
	BodyLimit  int64
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.Logger = l
	}
}

// WithUserAgent overrides the default browser user agent
func WithUserAgent(ua string) ClientOption {
	return func(client *Client) {
		if ua != "" {
			client.UserAgent = ua
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		if d > 0 {
			client.HTTPClient = newHTTPClient(d)
		}
	}
}

// WithBodyLimit sets the largest response body DoRequest accepts
func WithBodyLimit(n int64) ClientOption {
	return func(client *Client) {
		if n > 0 {
			client.BodyLimit = n
		}
	}
}

// NewClient creates a new base client with default settings
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: newHTTPClient(DefaultTimeout),
		Logger:     slog.Default(),
		UserAgent:  DefaultUserAgent,
		BodyLimit:  MaxBodySize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Close releases idle connections held by the client
func (c *Client) Close() {
	c.HTTPClient.CloseIdleConnections()
}

// RequestConfig configures a single HTTP request
type RequestConfig struct {
	Op     string // operation name used in errors and logs
	URL    string
	Accept string // defaults to */*
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// DoRequest performs exactly one GET. Transport failures (including context
// cancellation and body read errors) come back as *apierrors.NetworkError.
// Non-2xx statuses are returned to the caller, which decides what they mean.
func (c *Client) DoRequest(ctx context.Context, cfg RequestConfig) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, &apierrors.NetworkError{Op: cfg.Op, URL: cfg.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", c.UserAgent)
	if cfg.Accept != "" {
		req.Header.Set("Accept", cfg.Accept)
	} else {
		req.Header.Set("Accept", "*/*")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &apierrors.NetworkError{Op: cfg.Op, URL: cfg.URL, Err: err}
	}

	body, err := readAndClose(resp, c.BodyLimit)
	if err != nil {
		return nil, &apierrors.NetworkError{Op: cfg.Op, URL: cfg.URL, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// CheckStatus converts a non-2xx response into a *apierrors.StatusError.
func CheckStatus(op, url string, resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &apierrors.StatusError{
		Op:         op,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       Truncate(string(resp.Body), 200),
	}
}

// readAndClose reads at most limit bytes of the response body and closes it.
// A body longer than limit is an error, never a silently shortened result.
func readAndClose(resp *http.Response, limit int64) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}

// Truncate shortens a string to at most maxLen bytes, adding "..." if
// truncated. The cut never splits a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// newHTTPClient creates an HTTP client with optimized transport settings
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableCompression:    false,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
