// Package health provides HTTP handlers for liveness and readiness checks.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log, assets.Ping))
//	r.Get("/ping", health.NoContent[*router.Context])
//
// Readiness checks take the request context and report failure with an
// error; any failure answers 503.
package health
