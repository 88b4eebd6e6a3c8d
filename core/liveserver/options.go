package liveserver

import (
	"io"
	"log/slog"
	"time"
)

const (
	DefaultHost = "localhost"
	DefaultWait = 5 * time.Second
)

// Option configures a LiveServer.
type Option func(*LiveServer)

// WithHost sets the host the live server binds to and is reached at.
func WithHost(host string) Option {
	return func(s *LiveServer) {
		if host != "" {
			s.host = host
		}
	}
}

// WithPort sets the port. Zero picks a free port. A LIVESERVER_PORT value in
// the application configuration takes precedence.
func WithPort(port int) Option {
	return func(s *LiveServer) {
		s.port = port
	}
}

// WithWait sets how long Start waits for the server to accept connections.
func WithWait(wait time.Duration) Option {
	return func(s *LiveServer) {
		s.wait = wait
	}
}

// WithCleanStop toggles the SIGINT attempt before killing the process.
func WithCleanStop(enabled bool) Option {
	return func(s *LiveServer) {
		s.cleanStop = enabled
	}
}

// WithStopTimeout sets how long a cooperative shutdown may take.
func WithStopTimeout(timeout time.Duration) Option {
	return func(s *LiveServer) {
		if timeout > 0 {
			s.stopTimeout = timeout
		}
	}
}

// WithPollInterval sets the pause between readiness probes.
func WithPollInterval(interval time.Duration) Option {
	return func(s *LiveServer) {
		s.poller.Interval = interval
	}
}

// WithLauncher replaces the process launcher. WithOutput has no effect on a
// custom launcher.
func WithLauncher(l Launcher) Option {
	return func(s *LiveServer) {
		s.launcher = l
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *LiveServer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput sets where the live server process writes its stdout and stderr.
func WithOutput(w io.Writer) Option {
	return func(s *LiveServer) {
		s.output = w
	}
}

// WithConfigOverrides sets values that the live server process sees on top of
// the application configuration. The application configuration itself is not
// modified, so instances of one application do not affect each other.
func WithConfigOverrides(values map[string]any) Option {
	return func(s *LiveServer) {
		s.overrides = make(map[string]any, len(values))
		for k, v := range values {
			s.overrides[k] = v
		}
	}
}
