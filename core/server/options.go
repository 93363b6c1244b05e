package server

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option configures server behavior.
type Option func(*Server)

// WithTLS serves HTTPS with the given configuration. The configuration must
// carry its certificates.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = config
	}
}

// WithLogger sets a custom logger for server operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithShutdownTimeout sets the maximum time to wait for graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.shutdown = timeout
	}
}

// WithReadTimeout bounds reading the whole request.
func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = timeout
	}
}

// WithReadHeaderTimeout bounds reading request headers.
func WithReadHeaderTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.readHeaderTimeout = timeout
	}
}

// WithWriteTimeout bounds writing the response. Page rendering counts
// against it.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = timeout
	}
}

// WithIdleTimeout bounds keep-alive connections.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = timeout
	}
}

// WithMaxHeaderBytes limits request header size.
func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) {
		s.maxHeaderBytes = n
	}
}
