package ssr

import (
	"context"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

// URLOriginalKey is the page context key holding the request URI.
const URLOriginalKey = "urlOriginal"

// PublicEnvPlaceholder is replaced in rendered bodies with the public
// environment serialised as indented JSON. Templates depend on the exact text.
const PublicEnvPlaceholder = "{ replaceMeWithPublicEnvFromBackend: true }"

// PageContext is the per-request rendering context. It always contains
// URLOriginalKey.
type PageContext map[string]any

// URLOriginal returns the original request URI.
func (pc PageContext) URLOriginal() string {
	s, _ := pc[URLOriginalKey].(string)
	return s
}

// Renderer renders a page for the given initial context.
//
// A nil result or a result without HTTPResponse means the renderer has no
// page for the URL and the request should continue down the chain.
type Renderer interface {
	Render(ctx context.Context, init PageContext) (*RenderResult, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, init PageContext) (*RenderResult, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, init PageContext) (*RenderResult, error) {
	return f(ctx, init)
}

// RenderResult is the renderer's output for one page context.
type RenderResult struct {
	HTTPResponse *HTTPResponse `json:"httpResponse,omitempty"`
	// ErrorWhileRendering is set when rendering failed but the renderer may
	// still have produced an error page.
	ErrorWhileRendering error `json:"-"`
}

// HTTPResponse describes the response to send.
type HTTPResponse struct {
	Body       string      `json:"body"`
	StatusCode int         `json:"statusCode"`
	Headers    []Header    `json:"headers,omitempty"`
	EarlyHints []EarlyHint `json:"earlyHints,omitempty"`
}

// Header is a single response header. Order and duplicates are preserved.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EarlyHint is a Link header value sent with 103 Early Hints.
type EarlyHint struct {
	Link string `json:"earlyHintLink"`
}

// ContextExtender computes extra page context fields for a request, for
// example the authenticated user. app is the application value given to
// WithAppContext.
type ContextExtender[A any] func(ctx handler.Context, app A) (map[string]any, error)
