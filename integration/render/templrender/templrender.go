// Package templrender renders pages from templ components inside the Go
// process. It implements ssr.Renderer, so it can replace a JavaScript
// renderer without changing how the bridge is mounted.
//
//	tr := templrender.New(templrender.WithLayout(views.Layout()))
//	tr.Page("/", func(ctx context.Context, pc ssr.PageContext) (templ.Component, error) {
//		return views.Home(), nil
//	})
//	tr.Page("/products/*", productPage)
//
//	bridge, err := ssr.New[*router.Context, *App](tr)
//
// Paths without a page produce no response, so the request falls through.
package templrender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/ssrbridge/core/response"
	"github.com/dmitrymomot/ssrbridge/core/ssr"
)

// PageFunc builds the component for a page. Returning a response.HTTPError
// with a 4xx status renders the error page with that status.
type PageFunc func(ctx context.Context, pc ssr.PageContext) (templ.Component, error)

// ErrorPageFunc builds the component shown when a page fails.
type ErrorPageFunc func(err response.HTTPError) templ.Component

type page struct {
	path   string
	prefix bool
	fn     PageFunc
}

var _ ssr.Renderer = (*Renderer)(nil)

// Renderer renders registered templ pages.
type Renderer struct {
	pages      []page
	layout     templ.Component
	errorPage  ErrorPageFunc
	headers    []ssr.Header
	earlyHints []ssr.EarlyHint
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLayout wraps every page in layout. The page is passed as the layout's
// children ({ children... } in templ).
func WithLayout(layout templ.Component) Option {
	return func(r *Renderer) {
		r.layout = layout
	}
}

// WithErrorPage sets the component rendered for failed pages.
func WithErrorPage(fn ErrorPageFunc) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.errorPage = fn
		}
	}
}

// WithHeader adds a header to every rendered page.
func WithHeader(name, value string) Option {
	return func(r *Renderer) {
		r.headers = append(r.headers, ssr.Header{Name: name, Value: value})
	}
}

// WithEarlyHints sends the given Link values as early hints for every page.
func WithEarlyHints(links ...string) Option {
	return func(r *Renderer) {
		for _, l := range links {
			r.earlyHints = append(r.earlyHints, ssr.EarlyHint{Link: l})
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{errorPage: defaultErrorPage}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Page registers fn for path. A trailing "/*" matches the prefix and
// everything below it. The first matching registration wins.
func (r *Renderer) Page(path string, fn PageFunc) {
	p := page{path: path, fn: fn}
	if rest, ok := strings.CutSuffix(path, "/*"); ok {
		p.path = rest
		p.prefix = true
	}
	r.pages = append(r.pages, p)
}

func (r *Renderer) match(p string) PageFunc {
	for _, pg := range r.pages {
		if pg.path == p {
			return pg.fn
		}
		if pg.prefix && (p == pg.path+"/" || strings.HasPrefix(p, pg.path+"/")) {
			return pg.fn
		}
	}
	return nil
}

type pageContextKey struct{}

// PageContextFrom returns the page context inside a rendering component.
func PageContextFrom(ctx context.Context) ssr.PageContext {
	pc, _ := ctx.Value(pageContextKey{}).(ssr.PageContext)
	return pc
}

// Render implements ssr.Renderer.
func (r *Renderer) Render(ctx context.Context, pc ssr.PageContext) (*ssr.RenderResult, error) {
	u, err := url.ParseRequestURI(pc.URLOriginal())
	if err != nil {
		return &ssr.RenderResult{}, nil
	}

	fn := r.match(u.Path)
	if fn == nil {
		return &ssr.RenderResult{}, nil
	}

	ctx = context.WithValue(ctx, pageContextKey{}, pc)

	component, err := fn(ctx, pc)
	if err == nil && component == nil {
		err = fmt.Errorf("templrender: nil component for %s", u.Path)
	}
	if err != nil {
		return r.renderError(ctx, err)
	}

	body, err := r.renderComponent(ctx, component)
	if err != nil {
		return r.renderError(ctx, err)
	}

	return &ssr.RenderResult{HTTPResponse: r.response(http.StatusOK, body)}, nil
}

func (r *Renderer) renderComponent(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if r.layout != nil {
		if err := r.layout.Render(templ.WithChildren(ctx, c), &buf); err != nil {
			return "", fmt.Errorf("templrender: layout: %w", err)
		}
		return buf.String(), nil
	}
	if err := c.Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("templrender: page: %w", err)
	}
	return buf.String(), nil
}

// renderError renders the error page. Client errors are regular outcomes;
// anything else is also reported as ErrorWhileRendering.
func (r *Renderer) renderError(ctx context.Context, cause error) (*ssr.RenderResult, error) {
	herr := response.NormalizeError(cause)

	res := &ssr.RenderResult{}
	if !herr.Expected() {
		res.ErrorWhileRendering = cause
	}

	body, err := r.renderComponent(ctx, r.errorPage(herr))
	if err != nil {
		return nil, fmt.Errorf("templrender: error page: %w (while handling: %w)", err, cause)
	}
	res.HTTPResponse = r.response(herr.Status, body)

	return res, nil
}

func (r *Renderer) response(status int, body string) *ssr.HTTPResponse {
	headers := make([]ssr.Header, 0, len(r.headers)+1)
	headers = append(headers, ssr.Header{Name: "Content-Type", Value: "text/html; charset=utf-8"})
	headers = append(headers, r.headers...)

	return &ssr.HTTPResponse{
		Body:       body,
		StatusCode: status,
		Headers:    headers,
		EarlyHints: r.earlyHints,
	}
}

func defaultErrorPage(err response.HTTPError) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, werr := io.WriteString(w, "<h1>"+templ.EscapeString(err.Message)+"</h1>")
		return werr
	})
}
