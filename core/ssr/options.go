package ssr

import (
	"log/slog"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

// Option configures a Bridge.
type Option[C handler.Context, A any] func(*Bridge[C, A])

// WithAppContext sets the application value passed to the context extender.
func WithAppContext[C handler.Context, A any](app A) Option[C, A] {
	return func(b *Bridge[C, A]) {
		b.app = app
	}
}

// WithContextExtender adds fields to every page context.
// The extender cannot replace urlOriginal.
func WithContextExtender[C handler.Context, A any](fn ContextExtender[A]) Option[C, A] {
	return func(b *Bridge[C, A]) {
		b.extend = fn
	}
}

// WithPublicEnv sets the variables injected in place of PublicEnvPlaceholder.
func WithPublicEnv[C handler.Context, A any](env map[string]string) Option[C, A] {
	return func(b *Bridge[C, A]) {
		b.publicEnv = env
	}
}

// WithLogger sets the logger that receives errors reported while rendering.
func WithLogger[C handler.Context, A any](l *slog.Logger) Option[C, A] {
	return func(b *Bridge[C, A]) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithNotFound sets the handler used by Handler when the renderer produces
// no response.
func WithNotFound[C handler.Context, A any](h handler.HandlerFunc[C]) Option[C, A] {
	return func(b *Bridge[C, A]) {
		if h != nil {
			b.notFound = h
		}
	}
}

// WithEarlyHints toggles 103 Early Hints. Enabled by default.
func WithEarlyHints[C handler.Context, A any](enabled bool) Option[C, A] {
	return func(b *Bridge[C, A]) {
		b.earlyHints = enabled
	}
}
