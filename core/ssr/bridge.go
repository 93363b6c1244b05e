package ssr

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/response"
)

// Bridge adapts HTTP requests to a Renderer.
type Bridge[C handler.Context, A any] struct {
	renderer      Renderer
	app           A
	extend        ContextExtender[A]
	publicEnv     map[string]string
	publicEnvJSON string
	logger        *slog.Logger
	notFound      handler.HandlerFunc[C]
	earlyHints    bool
}

// New creates a Bridge for renderer.
func New[C handler.Context, A any](renderer Renderer, opts ...Option[C, A]) (*Bridge[C, A], error) {
	if renderer == nil {
		return nil, ErrNilRenderer
	}

	b := &Bridge[C, A]{
		renderer:   renderer,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
		earlyHints: true,
		notFound: func(C) handler.Response {
			return response.Error(response.ErrNotFound)
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	env, err := json.MarshalIndent(b.publicEnv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ssr: encode public env: %w", err)
	}
	b.publicEnvJSON = string(env)

	return b, nil
}

// PublicEnvJSON returns the text that replaces PublicEnvPlaceholder.
func (b *Bridge[C, A]) PublicEnvJSON() string {
	return b.publicEnvJSON
}

// Handler returns the catch-all endpoint. Register it after every other
// route and middleware. Requests without a rendered page go to the
// WithNotFound handler.
func (b *Bridge[C, A]) Handler() handler.HandlerFunc[C] {
	return b.serve(b.notFound)
}

// Middleware renders pages in front of next. Requests without a rendered
// page continue to next.
func (b *Bridge[C, A]) Middleware() handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return b.serve(next)
	}
}

func (b *Bridge[C, A]) serve(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		resp, err := b.Render(ctx)
		if err != nil {
			return response.Error(err)
		}
		if resp == nil {
			return next(ctx)
		}
		return b.write(resp)
	}
}

// Render builds the page context for the request in ctx and calls the
// renderer. A nil response with a nil error means there is no page.
// Errors reported while rendering are logged and do not fail the call.
func (b *Bridge[C, A]) Render(ctx C) (*HTTPResponse, error) {
	pc, err := b.PageContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := b.renderer.Render(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("ssr: render %s: %w", pc.URLOriginal(), err)
	}
	if res == nil {
		return nil, nil
	}

	if res.ErrorWhileRendering != nil {
		b.logger.ErrorContext(ctx, "error while rendering",
			logger.URL(pc.URLOriginal()),
			logger.Error(res.ErrorWhileRendering),
		)
	}

	return res.HTTPResponse, nil
}

// PageContext builds the initial page context for the request in ctx.
func (b *Bridge[C, A]) PageContext(ctx C) (PageContext, error) {
	pc := PageContext{}

	if b.extend != nil {
		ext, err := b.extend(ctx, b.app)
		if err != nil {
			return nil, fmt.Errorf("ssr: extend page context: %w", err)
		}
		maps.Copy(pc, ext)
	}

	pc[URLOriginalKey] = ctx.Request().URL.RequestURI()

	return pc, nil
}

func (b *Bridge[C, A]) write(resp *HTTPResponse) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		h := w.Header()

		if b.earlyHints && len(resp.EarlyHints) > 0 && r.ProtoAtLeast(1, 1) {
			prev := h.Values("Link")
			h.Del("Link")
			for _, hint := range resp.EarlyHints {
				h.Add("Link", hint.Link)
			}
			w.WriteHeader(http.StatusEarlyHints)
			h.Del("Link")
			for _, v := range prev {
				h.Add("Link", v)
			}
		}

		for _, hdr := range resp.Headers {
			h.Add(hdr.Name, hdr.Value)
		}

		body := strings.Replace(resp.Body, PublicEnvPlaceholder, b.publicEnvJSON, 1)

		if h.Get("Content-Type") == "" {
			h.Set("Content-Type", "text/html; charset=utf-8")
		}
		h.Set("Content-Length", strconv.Itoa(len(body)))

		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}

		if !bodyAllowed(status) {
			h.Del("Content-Length")
			w.WriteHeader(status)
			return nil
		}

		w.WriteHeader(status)
		if _, err := io.WriteString(w, body); err != nil {
			return fmt.Errorf("ssr: write body: %w", err)
		}
		return nil
	}
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
