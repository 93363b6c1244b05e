package static

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

// ImmutableCacheControl is sent for content-hashed bundles.
const ImmutableCacheControl = "public, max-age=31536000, immutable"

type cacheRule struct {
	prefix string
	value  string
}

type assetsConfig struct {
	prefix string
	rules  []cacheRule
}

// AssetsOption configures Assets.
type AssetsOption func(*assetsConfig)

// WithAssetsPrefix only serves requests under prefix, which is stripped
// before looking the file up.
func WithAssetsPrefix(prefix string) AssetsOption {
	return func(c *assetsConfig) {
		c.prefix = "/" + strings.Trim(prefix, "/")
		if c.prefix == "/" {
			c.prefix = ""
		}
	}
}

// WithCacheControl sets the Cache-Control value for files whose path (after
// prefix stripping) starts with pathPrefix. The first call drops the default
// rule for /assets/. Pass an empty value to disable caching headers for a
// subtree.
func WithCacheControl(pathPrefix, value string) AssetsOption {
	return func(c *assetsConfig) {
		if c.rules == nil {
			c.rules = []cacheRule{}
		}
		c.rules = append(c.rules, cacheRule{prefix: pathPrefix, value: value})
	}
}

func (c *assetsConfig) cacheControl(p string) string {
	for _, rule := range c.rules {
		if strings.HasPrefix(p, rule.prefix) {
			return rule.value
		}
	}
	return ""
}

// Assets returns a middleware serving GET and HEAD requests for files that
// exist in fsys. Anything else (other methods, missing files, directories
// without index.html) falls through to next, so it can sit in front of a
// catch-all renderer.
//
//	r.Use(static.Assets[*router.Context](os.DirFS("dist/client")))
//	r.Handle("/*", bridge.Handler())
func Assets[C handler.Context](fsys fs.FS, opts ...AssetsOption) handler.Middleware[C] {
	cfg := &assetsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rules == nil {
		cfg.rules = []cacheRule{{prefix: "/assets/", value: ImmutableCacheControl}}
	}

	var fileServer http.Handler = http.FileServer(neuteredFileSystem{fs: http.FS(fsys)})
	if cfg.prefix != "" {
		fileServer = http.StripPrefix(cfg.prefix, fileServer)
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			r := ctx.Request()
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				return next(ctx)
			}

			p := r.URL.Path
			if cfg.prefix != "" {
				if p != cfg.prefix && !strings.HasPrefix(p, cfg.prefix+"/") {
					return next(ctx)
				}
				p = strings.TrimPrefix(p, cfg.prefix)
			}

			if !servable(fsys, fsName(p)) {
				return next(ctx)
			}

			return func(w http.ResponseWriter, r *http.Request) error {
				if cc := cfg.cacheControl(p); cc != "" {
					w.Header().Set("Cache-Control", cc)
				}
				fileServer.ServeHTTP(w, r)
				return nil
			}
		}
	}
}
