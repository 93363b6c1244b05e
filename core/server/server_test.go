package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/ssrbridge/core/server"
)

func hello() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "hello")
	})
}

func TestServerRun(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, hello()))

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	cancel()
	require.NoError(t, g.Wait())

	_, err = http.Get("http://" + srv.Addr() + "/")
	assert.Error(t, err)
}

func TestServerStartTwice(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx, hello()) }()
	<-srv.Ready()

	assert.ErrorIs(t, srv.Start(ctx, hello()), server.ErrServerAlreadyRunning)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, srv.Stop())
}

func TestServerListenError(t *testing.T) {
	t.Parallel()

	srv := server.New("256.0.0.1:bad")
	err := srv.Start(context.Background(), hello())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server: listen")
	assert.NoError(t, srv.Stop())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		srv, err := server.NewFromConfig(server.DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, ":8080", srv.Addr())
	})

	t.Run("missing address", func(t *testing.T) {
		t.Parallel()
		srv, err := server.NewFromConfig(server.Config{ReadTimeout: time.Second})
		assert.ErrorIs(t, err, server.ErrMissingAddress)
		assert.Nil(t, srv)
	})

	t.Run("tls needs both files", func(t *testing.T) {
		t.Parallel()
		srv, err := server.NewFromConfig(server.Config{Addr: ":8080", TLSCertFile: "cert.pem"})
		require.NoError(t, err)
		assert.NotNil(t, srv)
	})

	t.Run("invalid tls files", func(t *testing.T) {
		t.Parallel()
		srv, err := server.NewFromConfig(server.Config{
			Addr:        ":8080",
			TLSCertFile: "/nonexistent/cert.pem",
			TLSKeyFile:  "/nonexistent/key.pem",
		})
		assert.ErrorIs(t, err, server.ErrFailedLoadCert)
		assert.Nil(t, srv)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := server.DefaultConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, server.DefaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, server.DefaultReadHeaderTimeout, cfg.ReadHeaderTimeout)
	assert.Equal(t, server.DefaultWriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, server.DefaultIdleTimeout, cfg.IdleTimeout)
	assert.Equal(t, server.DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, server.DefaultMaxHeaderBytes, cfg.MaxHeaderBytes)
}
