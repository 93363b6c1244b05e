package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

// maxRequestIDLength caps incoming IDs taken from UseExisting.
const maxRequestIDLength = 128

type requestIDContextKey struct{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName specifies the header name for the request ID (default: "X-Request-ID")
	HeaderName string
	// UseExisting trusts a well-formed ID sent by the client or a proxy.
	UseExisting bool
}

// RequestID creates a request ID middleware with default configuration.
func RequestID[C handler.Context]() handler.Middleware[C] {
	return RequestIDWithConfig[C](RequestIDConfig{})
}

// RequestIDWithConfig assigns an identifier to every request. The ID is
// stored in the request context, where the page context extender and the
// logging middleware pick it up, and echoed in the response headers.
func RequestIDWithConfig[C handler.Context](cfg RequestIDConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}

	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			var requestID string
			if cfg.UseExisting {
				if existing := ctx.Request().Header.Get(cfg.HeaderName); validRequestID(existing) {
					requestID = existing
				}
			}
			if requestID == "" {
				requestID = cfg.Generator()
			}

			ctx.SetValue(requestIDContextKey{}, requestID)

			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				w.Header().Set(cfg.HeaderName, requestID)
				return response(w, r)
			}
		}
	}
}

// GetRequestID retrieves the request ID from the request context.
func GetRequestID(ctx handler.Context) (string, bool) {
	return RequestIDFromContext(ctx)
}

// RequestIDFromContext retrieves the request ID from any context derived
// from the request, such as the one a renderer receives.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
