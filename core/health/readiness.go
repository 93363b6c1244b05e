package health

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/response"
)

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
//
// Example:
//
//	readinessHandler := health.Readiness[*myapp.Context](
//		logger,
//		assets.Ping,
//	)
//	router.Get("/health/ready", readinessHandler)
func Readiness[C handler.Context](log *slog.Logger, fn ...func(context.Context) error) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx C) handler.Response {
		for _, f := range fn {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Error(err))
				return response.Error(response.ErrServiceUnavailable)
			}
		}

		return response.String("READY")
	}
}
