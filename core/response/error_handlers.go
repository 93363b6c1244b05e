package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

// statusCode is an interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// NormalizeError converts any error to an HTTPError.
//
// An HTTPError anywhere in the chain is returned as is. Otherwise the status
// comes from a StatusCode() method, context errors map to timeouts, and
// everything else becomes a 500. The original message is kept as the "cause"
// detail for client errors only, so server-side failures never leak internals
// into rendered pages.
func NormalizeError(err error) HTTPError {
	if err == nil {
		return ErrInternalServerError
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	var sc statusCode
	switch {
	case errors.As(err, &sc):
		status = sc.StatusCode()
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}

	base, ok := httpErrorsByStatus[status]
	if !ok {
		base = ErrInternalServerError
	}

	if base.Expected() {
		return base.WithError(err)
	}
	return base
}

// written reports whether a response has already started on w. Writers that
// cannot tell are assumed to be untouched.
func written(w http.ResponseWriter) bool {
	ww, ok := w.(interface{ Written() bool })
	return ok && ww.Written()
}

// ErrorHandler is the default error handler that returns plain text errors.
// Errors raised after the response started are dropped.
func ErrorHandler[C handler.Context](ctx C, err error) {
	if written(ctx.ResponseWriter()) {
		return
	}
	httpErr := NormalizeError(err)
	Render(ctx, StringWithStatus(httpErr.Error(), httpErr.Status))
}

// JSONErrorHandler returns errors as JSON responses, in the same shape the
// gin adapter uses.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	if written(ctx.ResponseWriter()) {
		return
	}
	httpErr := NormalizeError(err)
	Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
}
