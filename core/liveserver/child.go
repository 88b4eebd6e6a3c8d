package liveserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/livetest/core/app"
	"github.com/dmitrymomot/livetest/core/config"
	"github.com/dmitrymomot/livetest/core/logger"
	"github.com/dmitrymomot/livetest/core/server"
)

// errParentGone is returned by the parent watcher when stdin reaches EOF.
var errParentGone = errors.New("test process is gone")

type childEnv struct {
	ID       string `env:"LIVETEST_CHILD_ID,required"`
	App      string `env:"LIVETEST_CHILD_APP,required"`
	Addr     string `env:"LIVETEST_CHILD_ADDR,required"`
	Config   string `env:"LIVETEST_CHILD_CONFIG"`
	LogLevel string `env:"LIVETEST_LOG_LEVEL" envDefault:"warn"`
}

// IsChild reports whether the current process is a live server process.
func IsChild() bool {
	_, ok := os.LookupEnv(EnvChildID)
	return ok
}

// RunChild serves the application described by the environment until it
// receives SIGINT or SIGTERM, or the test process goes away.
// It returns the process exit code.
func RunChild() int {
	var cenv childEnv
	if err := config.Load(&cenv); err != nil {
		logger.New().Error("live server process misconfigured", logger.Error(errors.Join(ErrChildEnv, err)))
		return 1
	}

	level, _ := logger.ParseLevel(cenv.LogLevel)
	log := logger.New(
		logger.WithLevel(level),
		logger.WithAttr(
			logger.Component("liveserver-process"),
			logger.InstanceID(cenv.ID),
			logger.App(cenv.App),
		),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serveChild(ctx, cenv, os.Stdin, log); err != nil {
		log.Error("live server process failed", logger.Error(err))
		return 1
	}
	return 0
}

func serveChild(ctx context.Context, cenv childEnv, parent io.Reader, log *slog.Logger) error {
	cfg, err := app.DecodeConfig(cenv.Config)
	if err != nil {
		return err
	}
	handler, err := app.Build(cenv.App, cfg)
	if err != nil {
		return err
	}
	// Stopped while the factory was still running.
	if ctx.Err() != nil {
		return nil
	}

	srvCfg := server.DefaultConfig()
	if err := config.Load(&srvCfg); err != nil {
		return err
	}
	srv := server.New(cenv.Addr, append(srvCfg.Options(), server.WithLogger(log))...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, handler))
	g.Go(func() error {
		return watchParent(gctx, parent)
	})

	return g.Wait()
}

// watchParent returns errParentGone once parent reaches EOF. The read cannot
// be interrupted, so the reader goroutine outlives a canceled ctx until exit.
func watchParent(ctx context.Context, parent io.Reader) error {
	eof := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, parent)
		close(eof)
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-eof:
		return errParentGone
	}
}
