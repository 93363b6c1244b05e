package ssr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/ssrbridge/core/devserver"
	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/locator"
	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/router"
	"github.com/dmitrymomot/ssrbridge/core/static"
)

// Defaults for MountConfig.
const (
	DefaultRootMarker = "package.json"
	DefaultClientDir  = "dist/client"
)

// MountConfig describes where the web application lives and how to serve it.
type MountConfig struct {
	Mode Mode
	// RootMarker is the path end that identifies the application root, such
	// as "package.json" or "webapp/package.json". The root is the directory
	// holding the marker file.
	RootMarker string
	// WorkDir is where the search for RootMarker starts. Defaults to the
	// process working directory.
	WorkDir string
	// FSAllow lists extra paths the dev server may serve.
	FSAllow []string
	// ClientDir is the built client bundle, relative to the root.
	ClientDir string
}

type mountOptions struct {
	assets      fs.FS
	assetsOpts  []static.AssetsOption
	serverEntry func(ctx context.Context, root string) error
	devOpts     []devserver.Option
	devProxy    *devserver.Proxy
	logger      *slog.Logger
}

// MountOption configures Mount.
type MountOption func(*mountOptions)

// WithAssets serves production assets from fsys instead of ClientDir.
func WithAssets(fsys fs.FS, opts ...static.AssetsOption) MountOption {
	return func(o *mountOptions) {
		o.assets = fsys
		o.assetsOpts = append(o.assetsOpts, opts...)
	}
}

// WithAssetsOptions configures the production asset middleware.
func WithAssetsOptions(opts ...static.AssetsOption) MountOption {
	return func(o *mountOptions) {
		o.assetsOpts = append(o.assetsOpts, opts...)
	}
}

// WithServerEntry runs fn with the application root before production assets
// are mounted, for example to start the renderer for the built server bundle.
func WithServerEntry(fn func(ctx context.Context, root string) error) MountOption {
	return func(o *mountOptions) {
		o.serverEntry = fn
	}
}

// WithDevServer passes options to devserver.Start in development mode.
func WithDevServer(opts ...devserver.Option) MountOption {
	return func(o *mountOptions) {
		o.devOpts = append(o.devOpts, opts...)
	}
}

// WithDevProxy uses an existing dev server proxy instead of starting one.
func WithDevProxy(p *devserver.Proxy) MountOption {
	return func(o *mountOptions) {
		o.devProxy = p
	}
}

// WithMountLogger sets the logger for startup messages and the dev server.
func WithMountLogger(l *slog.Logger) MountOption {
	return func(o *mountOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Mount resolves the application root, picks the asset layer for cfg.Mode
// and registers b behind it as the catch-all route. Call it after every other
// route. The returned closer stops a dev server started by Mount.
func Mount[C handler.Context, A any](ctx context.Context, r router.Router[C], b *Bridge[C, A], cfg MountConfig, opts ...MountOption) (io.Closer, error) {
	layer, closer, err := Layer[C](ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}

	r.With(layer).Handle("/*", b.Handler())

	return closer, nil
}

// Layer performs the one-time mode setup and returns the middleware that
// serves client assets: the built bundle in production, the dev server proxy
// in development. Adapters for other routers use it to build their own
// catch-all.
func Layer[C handler.Context](ctx context.Context, cfg MountConfig, opts ...MountOption) (handler.Middleware[C], io.Closer, error) {
	o := &mountOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger.With(logger.Component("ssr"))

	if cfg.RootMarker == "" {
		cfg.RootMarker = DefaultRootMarker
	}
	if cfg.ClientDir == "" {
		cfg.ClientDir = DefaultClientDir
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeDevelopment
	}
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("ssr: working directory: %w", err)
		}
		cfg.WorkDir = wd
	}

	marker, err := locator.FindFile(cfg.WorkDir, filepath.FromSlash(cfg.RootMarker))
	if err != nil {
		if errors.Is(err, locator.ErrNotFound) {
			return nil, nil, errors.Join(ErrRootNotFound, err)
		}
		return nil, nil, fmt.Errorf("ssr: resolve root: %w", err)
	}
	root := filepath.Dir(marker)

	var (
		closer io.Closer = nopCloser{}
		layer  handler.Middleware[C]
	)

	switch cfg.Mode {
	case ModeProduction:
		if o.serverEntry != nil {
			if err := o.serverEntry(ctx, root); err != nil {
				return nil, nil, fmt.Errorf("ssr: server entry: %w", err)
			}
		}

		assets := o.assets
		if assets == nil {
			dir := filepath.Join(root, filepath.FromSlash(cfg.ClientDir))
			if _, err := os.Stat(dir); err != nil {
				return nil, nil, fmt.Errorf("ssr: client assets: %w", err)
			}
			assets = os.DirFS(dir)
		}

		layer = static.Assets[C](assets, o.assetsOpts...)

	case ModeDevelopment:
		proxy := o.devProxy
		if proxy == nil {
			devOpts := append([]devserver.Option{
				devserver.WithFSAllow(cfg.FSAllow...),
				devserver.WithLogger(o.logger),
			}, o.devOpts...)

			proxy, err = devserver.Start(ctx, root, devOpts...)
			if err != nil {
				return nil, nil, fmt.Errorf("ssr: dev server: %w", err)
			}
			closer = proxy
		}

		layer = devserver.Middleware[C](proxy)

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}

	log.InfoContext(ctx, "client assets configured", logger.Mode(cfg.Mode.String()), logger.Dir(root))

	return layer, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
