package httprender_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssrbridge/core/ssr"
	"github.com/dmitrymomot/ssrbridge/integration/render/httprender"
)

func sidecar(t *testing.T, fn func(t *testing.T, pc map[string]any, r *http.Request) (int, string)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PageContextInit map[string]any `json:"pageContextInit"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status, out := fn(t, body.PageContextInit, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(out))
	}))
	t.Cleanup(srv.Close)

	return srv.URL + "/render"
}

func TestRenderPage(t *testing.T) {
	t.Parallel()

	endpoint := sidecar(t, func(t *testing.T, pc map[string]any, r *http.Request) (int, string) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "s3cret", r.Header.Get("X-Render-Token"))
		assert.Equal(t, "/products/1?ref=home", pc["urlOriginal"])
		assert.Equal(t, "alice", pc["user"])

		return http.StatusOK, `{
			"httpResponse": {
				"body": "<html>{ replaceMeWithPublicEnvFromBackend: true }</html>",
				"statusCode": 200,
				"headers": [["Content-Type", "text/html;charset=utf-8"], ["Set-Cookie", "a=1"], ["Set-Cookie", "b=2"]],
				"earlyHints": [{"earlyHintLink": "</assets/entry.js>; rel=modulepreload"}]
			},
			"errorWhileRendering": null
		}`
	})

	r, err := httprender.New(endpoint, httprender.WithHeader("X-Render-Token", "s3cret"))
	require.NoError(t, err)

	res, err := r.Render(context.Background(), ssr.PageContext{
		ssr.URLOriginalKey: "/products/1?ref=home",
		"user":             "alice",
	})
	require.NoError(t, err)
	require.NotNil(t, res.HTTPResponse)
	assert.NoError(t, res.ErrorWhileRendering)

	assert.Equal(t, 200, res.HTTPResponse.StatusCode)
	assert.Equal(t, "<html>{ replaceMeWithPublicEnvFromBackend: true }</html>", res.HTTPResponse.Body)
	assert.Equal(t, []ssr.Header{
		{Name: "Content-Type", Value: "text/html;charset=utf-8"},
		{Name: "Set-Cookie", Value: "a=1"},
		{Name: "Set-Cookie", Value: "b=2"},
	}, res.HTTPResponse.Headers)
	assert.Equal(t, []ssr.EarlyHint{{Link: "</assets/entry.js>; rel=modulepreload"}}, res.HTTPResponse.EarlyHints)
}

func TestRenderNoPage(t *testing.T) {
	t.Parallel()

	endpoint := sidecar(t, func(*testing.T, map[string]any, *http.Request) (int, string) {
		return http.StatusOK, `{"httpResponse": null}`
	})

	r, err := httprender.New(endpoint)
	require.NoError(t, err)

	res, err := r.Render(context.Background(), ssr.PageContext{ssr.URLOriginalKey: "/favicon.ico"})
	require.NoError(t, err)
	assert.Nil(t, res.HTTPResponse)
	assert.NoError(t, res.ErrorWhileRendering)
}

func TestRenderErrorWhileRendering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"string", `"Cannot read properties of undefined"`, "Cannot read properties of undefined"},
		{"object", `{"message": "boom", "stack": "at Page (page.tsx:3)"}`, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			endpoint := sidecar(t, func(*testing.T, map[string]any, *http.Request) (int, string) {
				return http.StatusOK, `{"httpResponse": {"body": "error page", "statusCode": 500, "headers": []}, "errorWhileRendering": ` + tt.raw + `}`
			})

			r, err := httprender.New(endpoint)
			require.NoError(t, err)

			res, err := r.Render(context.Background(), ssr.PageContext{ssr.URLOriginalKey: "/"})
			require.NoError(t, err)
			require.NotNil(t, res.HTTPResponse)
			assert.Equal(t, 500, res.HTTPResponse.StatusCode)

			var renderErr *httprender.RenderError
			require.True(t, errors.As(res.ErrorWhileRendering, &renderErr))
			assert.Equal(t, tt.msg, renderErr.Message)
		})
	}
}

func TestRenderSidecarFailures(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()

		endpoint := sidecar(t, func(*testing.T, map[string]any, *http.Request) (int, string) {
			return http.StatusInternalServerError, `renderer crashed`
		})
		r, err := httprender.New(endpoint)
		require.NoError(t, err)

		_, err = r.Render(context.Background(), ssr.PageContext{ssr.URLOriginalKey: "/"})
		assert.ErrorIs(t, err, httprender.ErrUnexpectedStatus)
		assert.Contains(t, err.Error(), "renderer crashed")
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()

		endpoint := sidecar(t, func(*testing.T, map[string]any, *http.Request) (int, string) {
			return http.StatusOK, `<html>`
		})
		r, err := httprender.New(endpoint)
		require.NoError(t, err)

		_, err = r.Render(context.Background(), ssr.PageContext{ssr.URLOriginalKey: "/"})
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		endpoint := sidecar(t, func(*testing.T, map[string]any, *http.Request) (int, string) {
			time.Sleep(200 * time.Millisecond)
			return http.StatusOK, `{"httpResponse": null}`
		})
		r, err := httprender.New(endpoint, httprender.WithTimeout(20*time.Millisecond))
		require.NoError(t, err)

		_, err = r.Render(context.Background(), ssr.PageContext{ssr.URLOriginalKey: "/"})
		assert.Error(t, err)
	})
}

func TestNewValidatesEndpoint(t *testing.T) {
	t.Parallel()

	for _, endpoint := range []string{"", "localhost:3000", "ftp://host/render", "http://"} {
		_, err := httprender.New(endpoint)
		assert.ErrorIs(t, err, httprender.ErrInvalidEndpoint, endpoint)
	}
}

func TestWithTimeoutKeepsSharedClient(t *testing.T) {
	t.Parallel()

	endpoint := sidecar(t, func(*testing.T, map[string]any, *http.Request) (int, string) {
		time.Sleep(200 * time.Millisecond)
		return http.StatusOK, `{"httpResponse": null}`
	})

	shared := &http.Client{Timeout: time.Minute}
	for _, opts := range [][]httprender.Option{
		{httprender.WithHTTPClient(shared), httprender.WithTimeout(20 * time.Millisecond)},
		{httprender.WithTimeout(20 * time.Millisecond), httprender.WithHTTPClient(shared)},
	} {
		r, err := httprender.New(endpoint, opts...)
		require.NoError(t, err)

		_, err = r.Render(context.Background(), ssr.PageContext{ssr.URLOriginalKey: "/"})
		assert.Error(t, err)
	}

	assert.Equal(t, time.Minute, shared.Timeout)
}
