package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

var (
	ErrNoContextFactory = errors.New("no context factory provided")
	ErrNilResponse      = errors.New("nil response")
	ErrInvalidMethod    = errors.New("invalid http method")
	ErrInvalidPattern   = errors.New("invalid route path pattern")
	ErrWildcardPosition = errors.New("wildcard position must be last")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
)

// Routing failures report their status through StatusCode.
var (
	ErrMethodNotAllowed error = &routeError{msg: "method not allowed", status: http.StatusMethodNotAllowed}
	ErrNotFound         error = &routeError{msg: "not found", status: http.StatusNotFound}
)

type routeError struct {
	msg    string
	status int
}

func (e *routeError) Error() string { return e.msg }

func (e *routeError) StatusCode() int { return e.status }

// statusCode is an unexported interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// defaultErrorHandler provides default error handling.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()

	// Prevent double-writing responses which causes HTTP protocol errors
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	http.Error(w, err.Error(), statusFromError(err))
}

func statusFromError(err error) int {
	var sc statusCode
	switch {
	case errors.As(err, &sc):
		return sc.StatusCode()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// PanicError interface allows external error handlers to detect and handle panics.
// When a panic is recovered by the router, it's wrapped in an error that implements
// this interface, providing access to the original panic value and stack trace.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
