package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

const anyMethod = "*"

var knownMethods = []string{
	http.MethodConnect,
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodTrace,
}

type route[C handler.Context] struct {
	method  string
	pattern pattern
	handler handler.HandlerFunc[C]
}

// routeTable is shared between a mux and its inline groups.
type routeTable[C handler.Context] struct {
	routes []*route[C]
}

// mux is the private implementation of Router interface.
type mux[C handler.Context] struct {
	table        *routeTable[C]
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	parent       *mux[C] // for inline groups
	inline       bool
	hasRoutes    bool
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		table:        &routeTable[C]{},
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			// Only the default *Context works without a factory
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return m
}

// ServeHTTP implements http.Handler interface.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)

	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	if !slices.Contains(knownMethods, r.Method) {
		m.errorHandler(m.newContext(ww, r, nil), ErrMethodNotAllowed)
		return
	}

	rt, params, allowed := m.find(r.Method, path)
	ctx := m.newContext(ww, r, params)

	// Recover from panics to prevent server crashes
	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{
				value: p,
				stack: debug.Stack(),
			}

			if ww.Written() {
				m.logger.Error("panic after response written",
					"value", panicErr.value,
					"stack", string(panicErr.stack),
					"path", r.URL.Path,
					"method", r.Method,
					"status", ww.Status(),
				)
				return
			}
			m.errorHandler(ctx, panicErr)
		}
	}()

	if rt == nil {
		if len(allowed) > 0 {
			// Allow header per RFC 7231 before responding with 405
			ww.Header().Set("Allow", strings.Join(allowed, ", "))
			m.errorHandler(ctx, ErrMethodNotAllowed)
			return
		}
		m.errorHandler(ctx, ErrNotFound)
		return
	}

	fn := rt.handler
	if len(m.middlewares) > 0 {
		fn = handler.Chain(m.middlewares, fn)
	}

	response := fn(ctx)
	if response == nil {
		m.errorHandler(ctx, ErrNilResponse)
		return
	}

	// Middlewares may replace the request (SetValue), so render with the context's request
	if err := response(ww, ctx.Request()); err != nil {
		m.errorHandler(ctx, err)
	}
}

// find returns the best matching route for method and path. When the path
// matches but the method does not, the allowed methods are returned instead.
func (m *mux[C]) find(method, path string) (*route[C], map[string]string, []string) {
	var (
		best       *route[C]
		bestParams map[string]string
		bestScore  = -1
		allowed    []string
	)

	for _, rt := range m.table.routes {
		params, ok := rt.pattern.match(path)
		if !ok {
			continue
		}
		if rt.method != anyMethod && rt.method != method {
			if !slices.Contains(allowed, rt.method) {
				allowed = append(allowed, rt.method)
			}
			continue
		}
		if s := rt.pattern.score(); s > bestScore {
			best, bestParams, bestScore = rt, params, s
		}
	}

	if best != nil {
		return best, bestParams, nil
	}
	slices.Sort(allowed)
	return nil, nil, allowed
}

// Get registers a handler for GET requests.
func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

// Post registers a handler for POST requests.
func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

// Put registers a handler for PUT requests.
func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

// Delete registers a handler for DELETE requests.
func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

// Patch registers a handler for PATCH requests.
func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

// Head registers a handler for HEAD requests.
func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodHead, pattern, h)
}

// Options registers a handler for OPTIONS requests.
func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

// Handle registers a handler for all HTTP methods.
func (m *mux[C]) Handle(pattern string, h handler.HandlerFunc[C]) {
	m.handle(anyMethod, pattern, h)
}

// Method registers a handler for one or more specific HTTP methods.
func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	if len(methods) == 0 {
		panic(fmt.Errorf("%w: no methods provided", ErrInvalidMethod))
	}

	seen := make(map[string]bool)
	for _, method := range methods {
		method = strings.ToUpper(method)
		if !slices.Contains(knownMethods, method) {
			panic(fmt.Errorf("%w: %s", ErrInvalidMethod, method))
		}
		if seen[method] {
			continue
		}
		seen[method] = true
		m.handle(method, pattern, h)
	}
}

// Use appends middleware to the router.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.hasRoutes {
		panic("ssrbridge: all middlewares must be defined before routes on a mux")
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

// With creates a new inline router with additional middleware.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	return &mux[C]{
		inline:       true,
		parent:       m,
		table:        m.table,
		middlewares:  middlewares,
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
	}
}

// Group creates a new inline router for grouping routes.
func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.With()
	if fn != nil {
		fn(im)
	}
	return im
}

// Routes returns all registered routes in registration order.
func (m *mux[C]) Routes() []Route {
	routes := make([]Route, 0, len(m.table.routes))
	for _, rt := range m.table.routes {
		routes = append(routes, Route{Method: rt.method, Pattern: rt.pattern.raw})
	}
	return routes
}

func (m *mux[C]) handle(method, raw string, fn handler.HandlerFunc[C]) {
	p, err := parsePattern(raw)
	if err != nil {
		panic(err)
	}

	h := fn
	if m.inline {
		// Inline groups bake their middleware chain in at registration time
		var all []handler.Middleware[C]
		for curr := m; curr != nil && curr.inline; curr = curr.parent {
			if len(curr.middlewares) > 0 {
				all = append(slices.Clone(curr.middlewares), all...)
			}
		}
		if len(all) > 0 {
			h = handler.Chain(all, fn)
		}
	}

	root := m
	for root.inline && root.parent != nil {
		root = root.parent
	}
	root.hasRoutes = true

	m.table.routes = append(m.table.routes, &route[C]{method: method, pattern: p, handler: h})
}
