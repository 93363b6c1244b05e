// Command ssrserver serves a server-rendered web application. Pages are
// rendered by an SSR sidecar reached over HTTP; client assets come from the
// built bundle, an S3 bucket or the JavaScript dev server depending on the
// mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/ssrbridge/core/config"
	"github.com/dmitrymomot/ssrbridge/core/devserver"
	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/health"
	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/response"
	"github.com/dmitrymomot/ssrbridge/core/router"
	"github.com/dmitrymomot/ssrbridge/core/server"
	"github.com/dmitrymomot/ssrbridge/core/ssr"
	"github.com/dmitrymomot/ssrbridge/core/static"
	"github.com/dmitrymomot/ssrbridge/integration/ginbridge"
	"github.com/dmitrymomot/ssrbridge/integration/render/httprender"
	"github.com/dmitrymomot/ssrbridge/integration/storage/s3"
	"github.com/dmitrymomot/ssrbridge/middleware"
)

const (
	publicEnvPrefix = "PUBLIC_ENV__"
	staticPrefix    = "/static"
)

type appConfig struct {
	Env          string   `env:"APP_ENV" envDefault:"development"`
	Engine       string   `env:"HTTP_ENGINE" envDefault:"router"` // router or gin
	RendererURL  string   `env:"SSR_RENDERER_URL" envDefault:"http://127.0.0.1:3001/render"`
	DevServerURL string   `env:"SSR_DEV_SERVER_URL"` // attach to a running dev server instead of launching one
	FSAllow      []string `env:"SSR_FS_ALLOW" envSeparator:","`
	RootMarker   string   `env:"SSR_ROOT_MARKER" envDefault:"package.json"`
	WorkDir      string   `env:"SSR_WORKDIR"`
	StaticDir    string   `env:"STATIC_DIR"` // served under /static/ when set
	Version      string   `env:"APP_VERSION" envDefault:"dev"`

	Server server.Config
	Assets s3.Config
}

// mountConfig maps the SSR settings onto ssr.MountConfig.
func (c appConfig) mountConfig(mode ssr.Mode) ssr.MountConfig {
	return ssr.MountConfig{
		Mode:       mode,
		RootMarker: c.RootMarker,
		WorkDir:    c.WorkDir,
		FSAllow:    c.FSAllow,
	}
}

// appInfo is shared with every page.
type appInfo struct {
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

// setup holds everything the HTTP handlers are built from.
type setup struct {
	log       *slog.Logger
	renderer  ssr.Renderer
	info      appInfo
	publicEnv map[string]string
	mount     ssr.MountConfig
	mountOpts []ssr.MountOption
	checks    []func(context.Context) error
	static    fs.FS
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	mode, err := ssr.ParseMode(cfg.Env)
	if err != nil {
		return err
	}

	log := logger.New(logger.WithDevelopment("ssrserver"))
	if mode.IsProduction() {
		log = logger.New(logger.WithProduction("ssrserver"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := httprender.New(cfg.RendererURL, httprender.WithLogger(log))
	if err != nil {
		return err
	}

	s := &setup{
		log:       log,
		renderer:  renderer,
		info:      appInfo{Version: cfg.Version, Mode: mode.String()},
		publicEnv: config.PublicEnv(publicEnvPrefix),
		mount:     cfg.mountConfig(mode),
		mountOpts: []ssr.MountOption{ssr.WithMountLogger(log)},
	}
	log.InfoContext(ctx, "public env loaded", slog.Any("keys", config.Keys(s.publicEnv)))

	if mode.IsProduction() && cfg.Assets.Enabled() {
		assets, err := s3.NewFS(ctx, cfg.Assets)
		if err != nil {
			return err
		}
		s.mountOpts = append(s.mountOpts, ssr.WithAssets(assets))
		s.checks = append(s.checks, assets.Ping)
	}
	if !mode.IsProduction() && cfg.DevServerURL != "" {
		u, err := parseURL(cfg.DevServerURL)
		if err != nil {
			return err
		}
		s.mountOpts = append(s.mountOpts, ssr.WithDevServer(devserver.WithURL(u)))
	}
	if cfg.StaticDir != "" {
		dir, err := staticDir(cfg.StaticDir)
		if err != nil {
			return err
		}
		s.static = dir
	}

	var (
		h      http.Handler
		closer io.Closer
	)
	switch cfg.Engine {
	case "gin":
		h, closer, err = s.ginHandler(ctx)
	case "", "router":
		h, closer, err = s.routerHandler(ctx)
	default:
		err = fmt.Errorf("unknown HTTP_ENGINE %q", cfg.Engine)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Error("close asset layer", logger.Error(err))
		}
	}()

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, h))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// staticDir opens dir for the /static/ route.
func staticDir(dir string) (fs.FS, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir: %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func extendPageContext(ctx handler.Context, app appInfo) (map[string]any, error) {
	ext := map[string]any{"app": app}
	if id, ok := middleware.RequestIDFromContext(ctx); ok {
		ext["requestId"] = id
	}
	return ext, nil
}

func (s *setup) routerHandler(ctx context.Context) (http.Handler, io.Closer, error) {
	type C = *router.Context

	bridge, err := ssr.New(s.renderer,
		ssr.WithAppContext[C, appInfo](s.info),
		ssr.WithContextExtender[C, appInfo](extendPageContext),
		ssr.WithPublicEnv[C, appInfo](s.publicEnv),
		ssr.WithLogger[C, appInfo](s.log),
	)
	if err != nil {
		return nil, nil, err
	}

	r := router.New(
		router.WithErrorHandler[C](response.JSONErrorHandler[C]),
		router.WithLogger[C](s.log),
	)
	r.Use(
		middleware.RequestID[C](),
		middleware.LoggingWithConfig[C](middleware.LoggingConfig{
			Logger: s.log,
			Skip: func(ctx handler.Context) bool {
				return ctx.Request().URL.Path == "/health/live"
			},
		}),
		middleware.SecurityHeaders[C](s.mount.Mode.IsProduction()),
	)
	r.Get("/health/live", health.Liveness[C])
	r.Get("/health/ready", health.Readiness[C](s.log, s.checks...))
	if s.static != nil {
		r.Get(staticPrefix+"/*", static.FS[C](s.static, static.WithFSStripPrefix(staticPrefix)))
	}

	closer, err := ssr.Mount(ctx, r, bridge, s.mount, s.mountOpts...)
	if err != nil {
		return nil, nil, err
	}
	return r, closer, nil
}

func (s *setup) ginHandler(ctx context.Context) (http.Handler, io.Closer, error) {
	type C = *ginbridge.Context

	bridge, err := ssr.New(s.renderer,
		ssr.WithAppContext[C, appInfo](s.info),
		ssr.WithContextExtender[C, appInfo](extendPageContext),
		ssr.WithPublicEnv[C, appInfo](s.publicEnv),
		ssr.WithLogger[C, appInfo](s.log),
		ssr.WithEarlyHints[C, appInfo](false),
	)
	if err != nil {
		return nil, nil, err
	}

	if s.mount.Mode.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/health/live", ginbridge.Wrap(health.Liveness[C], s.log))
	engine.GET("/health/ready", ginbridge.Wrap(health.Readiness[C](s.log, s.checks...), s.log))
	if s.static != nil {
		engine.GET(staticPrefix+"/*filepath", ginbridge.Wrap(static.FS[C](s.static, static.WithFSStripPrefix(staticPrefix)), s.log))
	}

	closer, err := ginbridge.Mount(ctx, engine, bridge, s.mount,
		ginbridge.WithMountOptions(s.mountOpts...),
		ginbridge.WithLogger(s.log),
	)
	if err != nil {
		return nil, nil, err
	}
	return engine, closer, nil
}
