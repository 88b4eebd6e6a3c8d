package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/livetest/core/logger"
)

// Timeouts applied when no option overrides them. The write timeout is
// generous because handlers under test may block on requests to the same
// server; the shutdown timeout stays below the live server's stop timeout.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = time.Minute
	DefaultIdleTimeout     = time.Minute
	DefaultShutdownTimeout = 4 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
)

// Server serves one handler on a fixed address.
// Safe for concurrent use.
type Server struct {
	addr           string
	logger         *slog.Logger
	shutdown       time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	maxHeaderBytes int
	accessLog      bool
	slowRequest    time.Duration

	mu       sync.RWMutex
	http     *http.Server
	listener net.Listener
}

// New returns an unstarted Server for addr in host:port form.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		logger:         logger.Discard(),
		shutdown:       DefaultShutdownTimeout,
		readTimeout:    DefaultReadTimeout,
		writeTimeout:   DefaultWriteTimeout,
		idleTimeout:    DefaultIdleTimeout,
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the address and serves handler until ctx is canceled or
// serving fails. A bind failure is returned before anything is served.
// Every connection is handled on its own goroutine, so a handler may call
// back into the same server. On cancellation Start returns ctx.Err() and
// leaves the server running; call Stop to drain it.
func (s *Server) Start(ctx context.Context, handler http.Handler) error {
	srv, ln, err := s.bind(handler)
	if err != nil {
		return err
	}

	failed := make(chan error, 1)
	go s.serve(ctx, srv, ln, failed)

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// bind claims the address and records the running server.
func (s *Server) bind(handler http.Handler) (*http.Server, net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.http != nil {
		return nil, nil, ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBind, err)
	}

	if s.accessLog {
		handler = AccessLog(handler, s.logger, s.slowRequest)
	}
	s.http = &http.Server{
		Handler:        handler,
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
	}
	s.listener = ln

	return s.http, ln, nil
}

func (s *Server) serve(ctx context.Context, srv *http.Server, ln net.Listener, failed chan<- error) {
	s.logger.InfoContext(ctx, "serving application", logger.Addr(ln.Addr().String()))

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return
	}

	s.mu.Lock()
	if s.http == srv {
		s.http = nil
	}
	s.mu.Unlock()
	failed <- fmt.Errorf("%w: %w", ErrHTTPServer, err)
}

// Addr returns the bound address while serving and the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.http != nil && s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop drains in-flight requests within the shutdown timeout.
// Stopping a server that is not running is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.http
	s.http = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	start := time.Now()
	s.logger.Info("shutting down application server", logger.Timeout(s.shutdown))

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("application server shutdown failed", logger.Error(err), logger.Elapsed(start))
		return fmt.Errorf("%w: %w", ErrShutdown, err)
	}

	s.logger.Info("application server stopped", logger.Elapsed(start))
	return nil
}

// Run returns a function for errgroup.Group.Go: it serves until ctx is
// canceled, then stops gracefully. Cancellation is not an error.
func (s *Server) Run(ctx context.Context, handler http.Handler) func() error {
	return func() error {
		err := s.Start(ctx, handler)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return s.Stop()
		}
		return err
	}
}
