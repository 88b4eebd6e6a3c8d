package liveserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/livetest/core/app"
	"github.com/dmitrymomot/livetest/core/logger"
)

// State is the lifecycle state of a LiveServer.
type State int

const (
	StateUnstarted State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// LiveServer controls one application running in its own process.
// Safe for concurrent use.
type LiveServer struct {
	id          string
	app         *app.App
	host        string
	port        int
	wait        time.Duration
	cleanStop   bool
	stopTimeout time.Duration
	poller      Poller
	launcher    Launcher
	logger      *slog.Logger
	output      io.Writer
	overrides   map[string]any

	mu    sync.Mutex
	state State
	proc  Process
}

// New prepares a live server for a. Host and port are resolved once here and
// stay fixed for the lifetime of the instance. No process is started.
func New(a *app.App, opts ...Option) (*LiveServer, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil application", app.ErrUnknownApp)
	}

	s := &LiveServer{
		id:          uuid.NewString(),
		app:         a,
		host:        DefaultHost,
		wait:        DefaultWait,
		cleanStop:   true,
		stopTimeout: DefaultStopTimeout,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if p, ok := a.Config().Int(app.KeyLiveServerPort); ok && p != 0 {
		s.port = p
	}
	port, err := ResolvePort(s.port)
	if err != nil {
		return nil, err
	}
	s.port = port

	if s.launcher == nil {
		s.launcher = &ExecLauncher{Stdout: s.output, Stderr: s.output, Logger: s.logger}
	}
	s.logger = s.logger.With(
		logger.Component("liveserver"),
		logger.InstanceID(s.id),
		logger.App(a.Name()),
	)

	return s, nil
}

// Start launches the live server process and blocks until it accepts
// connections. When readiness fails the process is left to Stop.
func (s *LiveServer) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateRunning:
		s.mu.Unlock()
		return ErrAlreadyStarted
	case StateStopped:
		s.mu.Unlock()
		return ErrStopped
	}

	start := time.Now()
	proc, err := s.launcher.Launch(Spec{
		ID:     s.id,
		App:    s.app.Name(),
		Addr:   s.Addr(),
		Config: s.launchConfig(),
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.proc = proc
	s.state = StateRunning
	s.mu.Unlock()

	log := s.logger.With(logger.PID(proc.Pid()), logger.Addr(s.Addr()))

	if err := s.poller.Wait(ctx, s.Addr(), s.wait, proc.Done()); err != nil {
		if errors.Is(err, ErrProcessExited) {
			<-proc.Done()
			if perr := proc.Err(); perr != nil {
				err = fmt.Errorf("%w: %w", ErrProcessExited, perr)
			}
		}
		log.Error("live server did not become ready", logger.Error(err), logger.Elapsed(start))
		return err
	}

	log.Info("live server started", logger.URL(s.URL("")), logger.Elapsed(start))
	return nil
}

// launchConfig is the application configuration as of now, with the
// instance overrides applied on a copy.
func (s *LiveServer) launchConfig() *app.Config {
	if len(s.overrides) == 0 {
		return s.app.Config()
	}
	cfg := app.NewConfig(s.app.Config().Snapshot())
	for k, v := range s.overrides {
		cfg.Set(k, v)
	}
	return cfg
}

// URL returns the absolute URL of path on the live server.
func (s *LiveServer) URL(path string) string {
	return "http://" + s.Addr() + path
}

// Host returns the host the server is reachable at.
func (s *LiveServer) Host() string {
	return s.host
}

// Port returns the resolved port.
func (s *LiveServer) Port() int {
	return s.port
}

// Addr returns host:port.
func (s *LiveServer) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Alive reports whether the live server process is running.
func (s *LiveServer) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil && processAlive(s.proc)
}

// State returns the current lifecycle state.
func (s *LiveServer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// App returns the application served by this instance.
func (s *LiveServer) App() *app.App {
	return s.app
}

// ID returns the unique instance identifier passed to the live server process.
func (s *LiveServer) ID() string {
	return s.id
}

func (s *LiveServer) String() string {
	return fmt.Sprintf("<LiveServer listening at %s>", s.URL(""))
}
