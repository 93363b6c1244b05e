package ginbridge

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Context adapts *gin.Context to handler.Context.
// Values set through SetValue live on the request context, so they are
// visible to every later handler in the gin chain.
type Context struct {
	gc     *gin.Context
	passed bool
}

// NewContext wraps a gin context.
func NewContext(gc *gin.Context) *Context {
	return &Context{gc: gc}
}

// Gin returns the wrapped gin context.
func (c *Context) Gin() *gin.Context {
	return c.gc
}

func (c *Context) Deadline() (time.Time, bool) {
	return c.gc.Request.Context().Deadline()
}

func (c *Context) Done() <-chan struct{} {
	return c.gc.Request.Context().Done()
}

func (c *Context) Err() error {
	return c.gc.Request.Context().Err()
}

func (c *Context) Value(key any) any {
	return c.gc.Request.Context().Value(key)
}

func (c *Context) SetValue(key, val any) {
	c.gc.Request = c.gc.Request.WithContext(context.WithValue(c.gc.Request.Context(), key, val))
}

func (c *Context) Request() *http.Request {
	return c.gc.Request
}

func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.gc.Writer
}

// Param returns a gin path parameter. NoRoute handlers have none.
func (c *Context) Param(key string) string {
	return c.gc.Param(key)
}
