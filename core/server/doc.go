// Package server runs an http.Handler with production timeouts and graceful
// shutdown.
//
// Server.Run returns a function suited to errgroup, which serves until the
// group context is canceled and then shuts down within the configured
// timeout:
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, mux))
//	return g.Wait()
//
// Config is populated from SERVER_* environment variables with the config
// package. TLS is served when both SERVER_TLS_CERT_FILE and
// SERVER_TLS_KEY_FILE are set.
package server
