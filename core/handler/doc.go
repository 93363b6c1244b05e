// Package handler provides the type-safe handler abstractions shared by the
// router, the static asset layer, the dev server proxy and the SSR bridge.
//
// A handler returns a Response closure instead of writing directly. The
// router runs the closure and forwards any returned error to its error
// handler, so every layer reports failures the same way:
//
//	type Response func(w http.ResponseWriter, r *http.Request) error
//	type HandlerFunc[C Context] func(ctx C) Response
//	type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
//
// Middlewares that only act on some requests (static files, dev server
// proxying) call next for everything else, which makes them safe to stack in
// front of the catch-all SSR handler:
//
//	func onlyGet[C handler.Context](next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//		return func(ctx C) handler.Response {
//			if ctx.Request().Method != http.MethodGet {
//				return next(ctx)
//			}
//			return func(w http.ResponseWriter, r *http.Request) error {
//				_, err := w.Write([]byte("ok"))
//				return err
//			}
//		}
//	}
//
// Chain composes middlewares around an endpoint; the first middleware in the
// slice runs first.
package handler
