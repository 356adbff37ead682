// Package server wraps http.Server with sensible timeouts, environment-based
// configuration, and graceful shutdown.
//
// The channel layer and consumer tasks live for as long as their connections
// do, so shutdown order matters: stop the server first (which ends every
// connection task and runs their cleanup), then close the channel layer.
//
//	srv := server.New(cfg.Addr, server.WithLogger(log))
//
//	go func() {
//		<-ctx.Done()
//		_ = srv.Stop()
//	}()
//
//	if err := srv.Start(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
//		log.Error("server failed", logger.Error(err))
//	}
package server
