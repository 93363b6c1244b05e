// Package httprender renders pages through an SSR sidecar over HTTP.
//
// The sidecar is a small JavaScript server that passes the posted page
// context to the framework's renderPage and answers with the outcome:
//
//	POST /render
//	{"pageContextInit": {"urlOriginal": "/products/1", ...}}
//
//	200 OK
//	{
//	  "httpResponse": {
//	    "body": "<!DOCTYPE html>...",
//	    "statusCode": 200,
//	    "headers": [["Content-Type", "text/html;charset=utf-8"]],
//	    "earlyHints": [{"earlyHintLink": "</assets/entry.js>; rel=modulepreload"}]
//	  },
//	  "errorWhileRendering": null
//	}
//
// A null httpResponse means the sidecar has no page for the URL.
package httprender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/ssr"
)

var (
	// ErrInvalidEndpoint is returned by New for unusable endpoint URLs.
	ErrInvalidEndpoint = errors.New("httprender: invalid endpoint")
	// ErrUnexpectedStatus is returned when the sidecar answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("httprender: unexpected sidecar status")
)

const maxErrorBody = 4 << 10

var _ ssr.Renderer = (*Renderer)(nil)

// Renderer is an ssr.Renderer backed by an SSR sidecar.
type Renderer struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	headers  http.Header
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHTTPClient sets the HTTP client used to reach the sidecar.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Renderer) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout sets the per-render timeout. Default 10s. A client passed to
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHeader adds a header to every request, e.g. a shared secret.
func WithHeader(key, value string) Option {
	return func(r *Renderer) {
		r.headers.Add(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Renderer posting to endpoint.
func New(endpoint string, opts ...Option) (*Renderer, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	r := &Renderer{
		endpoint: u.String(),
		client:   &http.Client{Timeout: 10 * time.Second},
		headers:  http.Header{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.timeout > 0 && r.client.Timeout != r.timeout {
		c := *r.client
		c.Timeout = r.timeout
		r.client = &c
	}
	r.logger = r.logger.With(logger.Component("httprender"))

	return r, nil
}

type renderRequest struct {
	PageContextInit ssr.PageContext `json:"pageContextInit"`
}

type wireResponse struct {
	Body       string          `json:"body"`
	StatusCode int             `json:"statusCode"`
	Headers    [][2]string     `json:"headers"`
	EarlyHints []ssr.EarlyHint `json:"earlyHints"`
}

type wireResult struct {
	HTTPResponse        *wireResponse   `json:"httpResponse"`
	ErrorWhileRendering json.RawMessage `json:"errorWhileRendering"`
}

// RenderError is a rendering error reported by the sidecar.
type RenderError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func (e *RenderError) Error() string {
	return "httprender: " + e.Message
}

// Render implements ssr.Renderer.
func (r *Renderer) Render(ctx context.Context, init ssr.PageContext) (*ssr.RenderResult, error) {
	payload, err := json.Marshal(renderRequest{PageContextInit: init})
	if err != nil {
		return nil, fmt.Errorf("httprender: encode page context: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("httprender: build request: %w", err)
	}
	for k, vs := range r.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httprender: post %s: %w", r.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out wireResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("httprender: decode response: %w", err)
	}

	r.logger.DebugContext(ctx, "page rendered",
		logger.URL(init.URLOriginal()),
		logger.Latency(time.Since(start)),
	)

	res := &ssr.RenderResult{ErrorWhileRendering: decodeRenderError(out.ErrorWhileRendering)}
	if out.HTTPResponse != nil {
		res.HTTPResponse = &ssr.HTTPResponse{
			Body:       out.HTTPResponse.Body,
			StatusCode: out.HTTPResponse.StatusCode,
			EarlyHints: out.HTTPResponse.EarlyHints,
		}
		for _, h := range out.HTTPResponse.Headers {
			res.HTTPResponse.Headers = append(res.HTTPResponse.Headers, ssr.Header{Name: h[0], Value: h[1]})
		}
	}

	return res, nil
}

// decodeRenderError accepts null, a string or a {message, stack} object.
func decodeRenderError(raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return nil
	}

	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return &RenderError{Message: msg}
	}

	var re RenderError
	if err := json.Unmarshal(raw, &re); err == nil && re.Message != "" {
		return &re
	}

	return &RenderError{Message: string(raw)}
}
