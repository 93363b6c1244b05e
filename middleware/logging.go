package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/response"
)

// LoggingConfig configures the access log middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Logger is the slog logger to use (default: slog.Default())
	Logger *slog.Logger

	// LogLevel for successful requests (default: slog.LevelInfo)
	LogLevel slog.Level

	// LogHeaders adds request and response headers to the entry.
	LogHeaders bool

	// SensitiveHeaders are redacted when LogHeaders is set.
	SensitiveHeaders []string

	// SlowRequestThreshold logs slower requests at warning level (default: 2s).
	// Server rendering dominates page latency, so keep it near the render budget.
	SlowRequestThreshold time.Duration

	// Component name for structured logging
	Component string
}

// Logging creates an access log middleware with default configuration.
func Logging[C handler.Context]() handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{})
}

// LoggingWithLogger creates an access log middleware with a custom logger.
func LoggingWithLogger[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{
		Logger: log,
	})
}

// LoggingWithConfig writes one entry per request once the response is done.
// 5xx responses log at error level, 4xx and slow requests at warning level.
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.LogLevel == 0 {
		cfg.LogLevel = slog.LevelInfo
	}

	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}
	for i, h := range cfg.SensitiveHeaders {
		cfg.SensitiveHeaders[i] = http.CanonicalHeaderKey(h)
	}

	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 2 * time.Second
	}

	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			req := ctx.Request()

			// next renders the page; the response only writes it.
			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				wrapped := &responseWriter{ResponseWriter: w}
				err := resp(wrapped, r)

				duration := time.Since(start)
				status := wrapped.status()
				if err != nil && !wrapped.written {
					// The error handler writes the response after us.
					status = response.NormalizeError(err).Status
				}

				attrs := []slog.Attr{
					logger.Component(cfg.Component),
					logger.Event("request"),
					logger.Method(req.Method),
					logger.Path(req.URL.Path),
					logger.RemoteAddr(req.RemoteAddr),
					logger.StatusCode(status),
					logger.BytesOut(wrapped.size),
					logger.Duration(duration),
				}
				if req.URL.RawQuery != "" {
					attrs = append(attrs, logger.Query(req.URL.RawQuery))
				}
				if id, ok := GetRequestID(ctx); ok {
					attrs = append(attrs, logger.RequestID(id))
				}
				if wrapped.hints > 0 {
					attrs = append(attrs, slog.Int("early_hints", wrapped.hints))
				}
				if cfg.LogHeaders {
					attrs = append(attrs,
						slog.Any("request_headers", redact(req.Header, cfg.SensitiveHeaders)),
						slog.Any("response_headers", redact(w.Header(), cfg.SensitiveHeaders)),
					)
				}

				if err != nil {
					attrs = append(attrs, logger.Error(err))
				}

				level := cfg.LogLevel
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				case duration > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, slog.Bool("slow_request", true))
				}

				cfg.Logger.LogAttrs(req.Context(), level, "HTTP request completed", attrs...)

				return err
			}
		}
	}
}

func redact(h http.Header, sensitive []string) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if slices.Contains(sensitive, key) {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// responseWriter records the final status and body size. Informational
// responses such as 103 Early Hints are counted and passed through.
type responseWriter struct {
	http.ResponseWriter
	code    int
	size    int64
	hints   int
	written bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		rw.hints++
		rw.ResponseWriter.WriteHeader(code)
		return
	}
	if rw.written {
		return
	}
	rw.code = code
	rw.written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController, which the
// dev server proxy needs for flushing and websocket upgrades.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) status() int {
	if rw.code == 0 {
		return http.StatusOK
	}
	return rw.code
}
