package handler

import "net/http"

// Response is a function that renders HTTP responses.
// It sets headers, status code, and writes the response body.
// Rendering errors are handled by the framework's error handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a type-safe HTTP request handler with custom context support.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler handles errors during request processing.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps handlers to add cross-cutting functionality.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Chain builds a single handler from a middleware stack and endpoint.
func Chain[C Context](middlewares []Middleware[C], endpoint HandlerFunc[C]) HandlerFunc[C] {
	h := endpoint

	// Wrap in reverse order so the first middleware runs first
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}
