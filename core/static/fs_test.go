package static_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssrbridge/core/response"
	"github.com/dmitrymomot/ssrbridge/core/router"
	"github.com/dmitrymomot/ssrbridge/core/static"
)

func TestFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"index.html":  {Data: []byte("<html>Index page</html>")},
		"styles.css":  {Data: []byte("body { color: red; }")},
		"empty/.keep": {Data: []byte("")},
		"docs/a.txt":  {Data: []byte("Documentation")},
	}

	r := router.New(router.WithErrorHandler[*router.Context](response.JSONErrorHandler[*router.Context]))
	r.Get("/static/*", static.FS[*router.Context](
		fsys,
		static.WithFSStripPrefix("/static"),
		static.WithFSCacheControl("public, max-age=3600"),
	))

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"file", "/static/styles.css", http.StatusOK, "body { color: red; }"},
		{"nested_file", "/static/docs/a.txt", http.StatusOK, "Documentation"},
		{"index", "/static/", http.StatusOK, "<html>Index page</html>"},
		{"missing", "/static/nope.js", http.StatusNotFound, ""},
		{"dir_without_index", "/static/empty/", http.StatusNotFound, ""},
		{"traversal", "/static/../../etc/passwd", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
				assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestFSMissingFileIsJSONError(t *testing.T) {
	t.Parallel()

	r := router.New(router.WithErrorHandler[*router.Context](response.JSONErrorHandler[*router.Context]))
	r.Get("/static/*", static.FS[*router.Context](fstest.MapFS{}, static.WithFSStripPrefix("/static/")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var body response.HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Code)
	assert.Empty(t, w.Header().Get("Cache-Control"))
}
