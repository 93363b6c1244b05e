package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/ssrbridge/core/logger"
)

// Server wraps http.Server with graceful shutdown and configuration options.
// Safe for concurrent use.
type Server struct {
	mu                sync.RWMutex
	addr              string
	server            *http.Server
	listener          net.Listener
	logger            *slog.Logger
	shutdown          time.Duration
	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	maxHeaderBytes    int
	tlsConfig         *tls.Config
	running           bool
	ready             chan struct{}
	readyOnce         sync.Once
}

// New creates a new Server with the given address and options.
// Defaults to 30-second graceful shutdown timeout and a no-op logger.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:              addr,
		logger:            logger.Discard(),
		shutdown:          DefaultShutdownTimeout,
		readTimeout:       DefaultReadTimeout,
		readHeaderTimeout: DefaultReadHeaderTimeout,
		writeTimeout:      DefaultWriteTimeout,
		idleTimeout:       DefaultIdleTimeout,
		maxHeaderBytes:    DefaultMaxHeaderBytes,
		ready:             make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address once listening, the configured one before.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start listens on the configured address and serves handler until the
// context is canceled or serving fails. Returns ctx.Err() on cancellation;
// use Stop for graceful shutdown.
func (s *Server) Start(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}

	s.running = true
	s.listener = ln
	s.server = &http.Server{
		Handler:           handler,
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readHeaderTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       s.idleTimeout,
		MaxHeaderBytes:    s.maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
	srv := s.server
	tlsCfg := s.tlsConfig
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting server", logger.Addr(ln.Addr().String()))
		s.readyOnce.Do(func() { close(s.ready) })

		var err error
		if tlsCfg != nil {
			srv.TLSConfig = tlsCfg
			err = srv.ServeTLS(ln, "", "")
		} else {
			err = srv.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully shuts down the server using the configured timeout.
// Returns immediately if the server is not running.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server gracefully", logger.Duration(s.shutdown))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.running = false

	if err != nil {
		s.logger.Error("server shutdown error", logger.Error(err))
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the server, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (s *Server) Run(ctx context.Context, handler http.Handler) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start(ctx, handler)
		}()

		select {
		case <-ctx.Done():
			if stopErr := s.Stop(); stopErr != nil {
				s.logger.Error("failed to stop server during context cancellation", logger.Error(stopErr))
			}
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Start saw the cancellation first.
				return s.Stop()
			}
			return err
		}
	}
}

// Run is a convenience function that creates and runs a server with default settings.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	return New(addr).Run(ctx, handler)()
}
