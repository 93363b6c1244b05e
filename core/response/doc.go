// Package response provides handler.Response constructors and the typed
// HTTPError used across the toolkit.
//
//	func about(ctx handler.Context) handler.Response {
//		return response.HTML("<h1>About</h1>")
//	}
//
//	func missing(ctx handler.Context) handler.Response {
//		return response.Error(response.ErrNotFound)
//	}
//
// NormalizeError turns arbitrary errors into an HTTPError. The router's error
// handler uses it to pick a status, and data getters use it to hand a
// serialisable error value to pages instead of failing the render.
package response
