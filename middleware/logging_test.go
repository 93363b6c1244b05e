package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/response"
	"github.com/dmitrymomot/ssrbridge/core/router"
	"github.com/dmitrymomot/ssrbridge/middleware"
)

type entry struct {
	level slog.Level
	msg   string
	attrs map[string]any
}

type captureHandler struct {
	mu      sync.Mutex
	entries []entry
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	e := entry{level: r.Level, msg: r.Message, attrs: map[string]any{}}
	r.Attrs(func(a slog.Attr) bool {
		e.attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) only(t *testing.T) entry {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.entries, 1)
	return h.entries[0]
}

func TestLogging(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	r := router.New[*router.Context]()
	r.Use(middleware.RequestID[*router.Context]())
	r.Use(middleware.LoggingWithLogger[*router.Context](slog.New(capture)))
	r.Get("/page", func(*router.Context) handler.Response {
		return response.HTML("<p>hello</p>")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page?tab=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	e := capture.only(t)
	assert.Equal(t, slog.LevelInfo, e.level)
	assert.Equal(t, "HTTP request completed", e.msg)
	assert.Equal(t, "GET", e.attrs["method"])
	assert.Equal(t, "/page", e.attrs["path"])
	assert.Equal(t, "tab=1", e.attrs["query"])
	assert.EqualValues(t, http.StatusOK, e.attrs["status_code"])
	assert.EqualValues(t, len("<p>hello</p>"), e.attrs["bytes_out"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), e.attrs["request_id"])
}

func TestLoggingLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		h      handler.HandlerFunc[*router.Context]
		slow   time.Duration
		level  slog.Level
		status int
		hasErr bool
	}{
		{
			name:   "client error",
			h:      func(*router.Context) handler.Response { return response.Error(response.ErrNotFound) },
			level:  slog.LevelWarn,
			status: http.StatusNotFound,
			hasErr: true,
		},
		{
			name:   "server error",
			h:      func(*router.Context) handler.Response { return response.Error(errors.New("render failed")) },
			level:  slog.LevelError,
			status: http.StatusInternalServerError,
			hasErr: true,
		},
		{
			name: "written 502",
			h: func(*router.Context) handler.Response {
				return response.StringWithStatus("bad gateway", http.StatusBadGateway)
			},
			level:  slog.LevelError,
			status: http.StatusBadGateway,
		},
		{
			name: "slow",
			h: func(*router.Context) handler.Response {
				time.Sleep(20 * time.Millisecond)
				return response.String("ok")
			},
			slow:   time.Millisecond,
			level:  slog.LevelWarn,
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			capture := &captureHandler{}
			r := router.New[*router.Context]()
			r.Use(middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
				Logger:               slog.New(capture),
				SlowRequestThreshold: tt.slow,
			}))
			r.Get("/", tt.h)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, w.Code)

			e := capture.only(t)
			assert.Equal(t, tt.level, e.level)
			assert.EqualValues(t, tt.status, e.attrs["status_code"])
			_, hasErr := e.attrs["error"]
			assert.Equal(t, tt.hasErr, hasErr)
		})
	}
}

func TestLoggingHeaders(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	r := router.New[*router.Context]()
	r.Use(middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger:           slog.New(capture),
		LogHeaders:       true,
		SensitiveHeaders: []string{"x-session"},
	}))
	r.Get("/", func(*router.Context) handler.Response {
		return func(w http.ResponseWriter, _ *http.Request) error {
			w.Header().Set("X-Session", "secret")
			w.Header().Set("X-Page", "home")
			w.WriteHeader(http.StatusOK)
			return nil
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session", "secret")
	r.ServeHTTP(httptest.NewRecorder(), req)

	e := capture.only(t)
	reqHeaders, ok := e.attrs["request_headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", reqHeaders["X-Session"])

	respHeaders, ok := e.attrs["response_headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", respHeaders["X-Session"])
	assert.Equal(t, "home", respHeaders["X-Page"])
}

func TestLoggingEarlyHints(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	r := router.New[*router.Context]()
	r.Use(middleware.LoggingWithLogger[*router.Context](slog.New(capture)))
	r.Get("/", func(*router.Context) handler.Response {
		return func(w http.ResponseWriter, _ *http.Request) error {
			w.Header().Set("Link", "</app.js>; rel=preload")
			w.WriteHeader(http.StatusEarlyHints)
			w.Header().Del("Link")
			w.WriteHeader(http.StatusCreated)
			return nil
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	e := capture.only(t)
	assert.EqualValues(t, http.StatusCreated, e.attrs["status_code"])
	assert.EqualValues(t, 1, e.attrs["early_hints"])
}
