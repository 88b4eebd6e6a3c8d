// Package server runs an application handler on a host:port with graceful
// shutdown. It is the serve loop of the live server process, but works as a
// plain embedded server as well.
//
// The address is bound synchronously inside Start, so "address already in
// use" surfaces as an error from Start/Run instead of a background log line.
//
// # Basic Usage
//
//	srv := server.New("localhost:5001",
//		server.WithShutdownTimeout(4*time.Second),
//		server.WithLogger(log),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	if err := srv.Run(ctx, handler)(); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run returns a func() error so it can be handed to errgroup.Group.Go directly.
//
// # Configuration
//
// Config carries the timeouts with LIVETEST_SERVER_* environment variables:
//
//	cfg := server.DefaultConfig()
//	_ = config.Load(&cfg)
//	srv := server.New(addr, cfg.Options()...)
package server
