package static

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/response"
)

// FSOption configures FS.
type FSOption func(*fsConfig)

type fsConfig struct {
	stripPrefix string
	maxAge      string
}

// WithFSStripPrefix removes the route prefix from the URL path before the
// file is looked up, so "/static/app.js" under WithFSStripPrefix("/static")
// serves "app.js".
func WithFSStripPrefix(prefix string) FSOption {
	return func(c *fsConfig) {
		c.stripPrefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithFSCacheControl sets the Cache-Control header for served files.
func WithFSCacheControl(value string) FSOption {
	return func(c *fsConfig) {
		c.maxAge = value
	}
}

// FS returns a terminal handler serving files from fsys. Unlike Assets it
// does not fall through: a missing file, a directory without index.html or a
// method other than GET and HEAD is returned as an error for the router's
// error handler.
//
//	r.Get("/static/*", static.FS[*router.Context](os.DirFS("public"), static.WithFSStripPrefix("/static")))
func FS[C handler.Context](fsys fs.FS, opts ...FSOption) handler.HandlerFunc[C] {
	cfg := &fsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	fileServer := http.FileServer(neuteredFileSystem{fs: http.FS(fsys)})
	if cfg.stripPrefix != "" {
		fileServer = http.StripPrefix(cfg.stripPrefix, fileServer)
	}

	return func(ctx C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				return response.ErrMethodNotAllowed
			}
			if !servable(fsys, fsName(strings.TrimPrefix(r.URL.Path, cfg.stripPrefix))) {
				return response.ErrNotFound
			}
			if cfg.maxAge != "" {
				w.Header().Set("Cache-Control", cfg.maxAge)
			}
			fileServer.ServeHTTP(w, r)
			return nil
		}
	}
}
