// Package ssrbridge serves server-side rendered web applications from Go.
//
// A JavaScript SSR framework renders pages; this module wires it into a Go
// HTTP server. It locates the web application, serves its client assets or
// proxies its dev server, turns each request into a page context, and writes
// the rendered response back with headers, status, early hints and the
// public environment substituted into the page.
//
// # Core
//
//   - github.com/dmitrymomot/ssrbridge/core/ssr: page context construction,
//     the Renderer contract, response writing and mode-dependent mounting.
//   - github.com/dmitrymomot/ssrbridge/core/datagetter: wraps page data
//     loaders so failures travel to the client as data.
//   - github.com/dmitrymomot/ssrbridge/core/locator: finds the application
//     root by walking up from a directory.
//   - github.com/dmitrymomot/ssrbridge/core/devserver: launches or attaches
//     to the JavaScript dev server and proxies to it.
//   - github.com/dmitrymomot/ssrbridge/core/static: serves built assets.
//   - github.com/dmitrymomot/ssrbridge/core/router: generic HTTP router.
//   - github.com/dmitrymomot/ssrbridge/core/handler: handler, middleware and
//     context types shared by every package.
//   - github.com/dmitrymomot/ssrbridge/core/response: response helpers and
//     HTTP errors.
//   - github.com/dmitrymomot/ssrbridge/core/server: HTTP server lifecycle.
//   - github.com/dmitrymomot/ssrbridge/core/config: environment configuration.
//   - github.com/dmitrymomot/ssrbridge/core/logger: slog setup and attributes.
//   - github.com/dmitrymomot/ssrbridge/core/health: liveness and readiness handlers.
//
// # Middleware
//
//   - github.com/dmitrymomot/ssrbridge/middleware: request IDs, access
//     logging and security headers.
//
// # Integrations
//
//   - github.com/dmitrymomot/ssrbridge/integration/render/httprender:
//     renderer backed by an SSR sidecar over HTTP.
//   - github.com/dmitrymomot/ssrbridge/integration/render/templrender:
//     renderer backed by templ components.
//   - github.com/dmitrymomot/ssrbridge/integration/storage/s3: client
//     assets served from an S3 bucket.
//   - github.com/dmitrymomot/ssrbridge/integration/ginbridge: mounts the
//     bridge on a gin engine.
//
// # Command
//
//   - github.com/dmitrymomot/ssrbridge/cmd/ssrserver: runnable server.
package ssrbridge
