package router

import (
	"context"
	"net/http"
	"time"
)

// Context is the default context implementation.
// It delegates all context.Context methods to the request's context.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

// NewContext creates a Context for the given request. Routers build one per
// request; it is exported for adapters and tests that call handlers directly.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}

// Deadline delegates to the request context.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done delegates to the request context.
func (c *Context) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err delegates to the request context.
func (c *Context) Err() error {
	return c.r.Context().Err()
}

// Value delegates to the request context.
func (c *Context) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue stores a value in the request's context.
func (c *Context) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

// Request returns the *http.Request associated with the context.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the http.ResponseWriter associated with the context.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the value of the URL parameter by key.
// The catch-all segment is available under "*".
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}
