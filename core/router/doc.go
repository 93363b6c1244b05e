// Package router provides a small generic HTTP router with middleware support
// and type-safe request contexts.
//
// Patterns are slash separated. A segment is either literal text, a named
// parameter written as {name}, or a trailing "*" that matches the rest of the
// path:
//
//	r := router.New[*router.Context]()
//	r.Get("/health/live", liveness)
//	r.Get("/api/users/{id}", getUser)
//	r.Handle("/*", catchAll) // all methods, lowest priority
//
// When several routes match, literal segments beat parameters and any
// non-wildcard route beats a catch-all, regardless of registration order.
// The wildcard remainder is available as ctx.Param("*").
//
// Middlewares registered with Use wrap every matched route and must be added
// before the first route. Group and With create inline routers whose extra
// middlewares only apply to routes registered through them.
//
// Handler errors, unmatched paths (ErrNotFound), unsupported methods
// (ErrMethodNotAllowed) and recovered panics (PanicError) are all passed to
// the error handler. The default handler responds with http.Error using the
// status from a StatusCode() method when the error provides one.
//
// The response writer handed to handlers forwards informational statuses such
// as 103 Early Hints without committing the response, and supports
// http.Hijacker for websocket upgrades.
package router
