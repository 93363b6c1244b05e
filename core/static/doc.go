// Package static serves files from an fs.FS.
//
// Assets is a middleware for production client bundles: it answers GET and
// HEAD requests for files that exist and passes everything else to the next
// handler, which is usually the SSR catch-all.
//
//	r := router.New[*router.Context]()
//	r.Use(static.Assets[*router.Context](os.DirFS("webapp/dist/client")))
//	r.Handle("/*", bridge.Handler())
//
// Files under /assets/ are content hashed by the bundler and get an immutable
// Cache-Control header by default; use WithCacheControl to change the rules.
//
// FS is a terminal handler for mounting a filesystem under a route. Missing
// files are returned as response.ErrNotFound for the router's error handler:
//
//	r.Get("/static/*", static.FS[*router.Context](os.DirFS("public"), static.WithFSStripPrefix("/static")))
//
// Directory listing is disabled in both cases. A directory is only served
// when it contains an index.html.
package static
