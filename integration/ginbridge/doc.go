// Package ginbridge mounts an ssr.Bridge on a gin engine.
//
// The asset layer chosen by ssr.Layer runs as engine middleware and the
// bridge renders from the engine's NoRoute handler, so every explicit gin
// route keeps priority over page rendering. Requests the renderer declines
// fall through to gin's own 404.
//
//	engine := gin.New()
//	engine.GET("/healthz", healthz)
//	closer, err := ginbridge.Mount(ctx, engine, bridge, ssr.MountConfig{Mode: ssr.ModeProduction})
//
// gin buffers the response status until the first body write, so 103 Early
// Hints never reach the client through an engine. Disable them on the bridge
// with ssr.WithEarlyHints(false).
package ginbridge
