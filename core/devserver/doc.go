// Package devserver runs a JavaScript dev server (Vite by default) next to the
// Go server and puts it in front of the SSR catch-all as a middleware.
//
// Start launches the dev server in the application root, waits for it to
// print its URL and returns a Proxy. WithURL skips the launch and proxies to
// a server that is already running.
//
//	proxy, err := devserver.Start(ctx, root, devserver.WithFSAllow("../shared"))
//	if err != nil {
//		return err
//	}
//	defer proxy.Close()
//
//	r.Use(devserver.Middleware[*router.Context](proxy))
//	r.Handle("/*", bridge.Handler())
//
// The middleware behaves like a dev server mounted in middleware mode. Only
// module and asset traffic is proxied: the DefaultForwardPrefixes, paths
// with a file extension and websocket upgrades used for hot module
// replacement. Page navigations go straight to the next handler, and so do
// requests the dev server answers with 404.
//
// Requests for /@fs/ paths are checked against the application root and the
// allow-list before they reach the dev server. Without WithFSAllow the
// allow-list is the workspace root, matching Vite's default. A launched dev
// server gets the list in the FSAllowEnv variable.
package devserver
