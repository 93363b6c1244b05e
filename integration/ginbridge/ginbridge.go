package ginbridge

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/response"
	"github.com/dmitrymomot/ssrbridge/core/ssr"
)

// DefaultSecureConfig returns the security headers applied by Mount.
func DefaultSecureConfig() secure.Config {
	return secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
}

type options struct {
	secure    *secure.Config
	mountOpts []ssr.MountOption
	logger    *slog.Logger
}

// Option configures Mount.
type Option func(*options)

// WithSecureConfig replaces the default security headers.
func WithSecureConfig(cfg secure.Config) Option {
	return func(o *options) {
		o.secure = &cfg
	}
}

// WithoutSecure disables the security headers middleware.
func WithoutSecure() Option {
	return func(o *options) {
		o.secure = nil
	}
}

// WithMountOptions passes options to ssr.Layer.
func WithMountOptions(opts ...ssr.MountOption) Option {
	return func(o *options) {
		o.mountOpts = append(o.mountOpts, opts...)
	}
}

// WithLogger sets the logger used for request errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Mount installs the security headers and the asset layer on engine and
// registers b as its NoRoute handler. The returned closer stops a dev server
// started for development mode.
func Mount[A any](ctx context.Context, engine *gin.Engine, b *ssr.Bridge[*Context, A], cfg ssr.MountConfig, opts ...Option) (io.Closer, error) {
	def := DefaultSecureConfig()
	o := &options{
		secure: &def,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	layer, closer, err := ssr.Layer[*Context](ctx, cfg, o.mountOpts...)
	if err != nil {
		return nil, err
	}

	if o.secure != nil {
		engine.Use(secure.New(*o.secure))
	}
	engine.Use(Middleware(layer, o.logger))
	engine.NoRoute(Handler(b, o.logger))

	return closer, nil
}

// Middleware runs a handler middleware inside a gin chain. When mw hands the
// request to its next handler, the gin chain continues; otherwise the chain
// is aborted once mw has responded.
func Middleware(mw handler.Middleware[*Context], log *slog.Logger) gin.HandlerFunc {
	h := mw(next)
	return func(gc *gin.Context) {
		serve(gc, h, log)
	}
}

// Handler renders pages with b. Requests without a page continue down the
// gin chain, which for a NoRoute handler ends in gin's 404.
func Handler[A any](b *ssr.Bridge[*Context, A], log *slog.Logger) gin.HandlerFunc {
	return Middleware(b.Middleware(), log)
}

// Wrap turns a terminal handler into a gin handler. Its errors are rendered
// as JSON the same way as page errors.
//
//	engine.GET("/health/ready", ginbridge.Wrap(health.Readiness[*ginbridge.Context](log, checks...), log))
func Wrap(h handler.HandlerFunc[*Context], log *slog.Logger) gin.HandlerFunc {
	return func(gc *gin.Context) {
		serve(gc, h, log)
	}
}

func next(ctx *Context) handler.Response {
	return func(http.ResponseWriter, *http.Request) error {
		ctx.passed = true
		ctx.gc.Next()
		return nil
	}
}

func serve(gc *gin.Context, h handler.HandlerFunc[*Context], log *slog.Logger) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx := NewContext(gc)
	err := h(ctx)(gc.Writer, gc.Request)
	if err == nil {
		if !ctx.passed {
			gc.Abort()
		}
		return
	}

	_ = gc.Error(err)
	if gc.Writer.Written() {
		log.ErrorContext(gc.Request.Context(), "error after response started",
			logger.Path(gc.Request.URL.Path),
			logger.Error(err))
		gc.Abort()
		return
	}

	httpErr := response.NormalizeError(err)
	gc.AbortWithStatusJSON(httpErr.Status, httpErr)
}
