// Package middleware provides the HTTP middleware placed in front of the
// page renderer.
//
//	r := router.New[*router.Context]()
//	r.Use(
//		middleware.RequestID[*router.Context](),
//		middleware.LoggingWithLogger[*router.Context](log),
//		middleware.SecurityHeaders[*router.Context](mode.IsProduction()),
//	)
//
// Every middleware takes a Skip function in its config and is generic over
// the request context type.
package middleware
