// Package ssr connects a server-side renderer to the router.
//
// A Bridge turns each request into a PageContext, asks the Renderer for a
// page and writes the result: early hints, headers in order, the status code
// and the body with PublicEnvPlaceholder replaced by the public environment.
// When the renderer has no page the request is passed on, so the bridge is
// registered as the last route.
//
//	bridge, err := ssr.New[*router.Context, *App](renderer,
//		ssr.WithAppContext[*router.Context](app),
//		ssr.WithContextExtender[*router.Context](func(ctx handler.Context, app *App) (map[string]any, error) {
//			return map[string]any{"user": app.CurrentUser(ctx)}, nil
//		}),
//		ssr.WithPublicEnv[*router.Context, *App](config.PublicEnv("PUBLIC_ENV__")),
//		ssr.WithLogger[*router.Context, *App](log),
//	)
//
// Mount does the one-time setup around the bridge. It finds the application
// root by walking up from the working directory to package.json, then serves
// dist/client in production or proxies to the dev server in development, and
// finally registers the bridge as the catch-all:
//
//	closer, err := ssr.Mount(ctx, r, bridge, ssr.MountConfig{Mode: ssr.ModeProduction})
//
// Layer performs the same setup without touching a router, for adapters such
// as integration/ginbridge.
//
// Errors reported by the renderer as ErrorWhileRendering are logged and the
// response is still sent. Any other failure is returned to the router's
// error handler.
package ssr
