package liveserver

import (
	"context"
	"net"
	"time"
)

const (
	// DefaultPollInterval is the pause between two readiness probes.
	DefaultPollInterval = 25 * time.Millisecond

	// DefaultDialTimeout bounds a single readiness probe.
	DefaultDialTimeout = 250 * time.Millisecond
)

// Poller waits for a TCP endpoint to accept connections.
type Poller struct {
	Interval    time.Duration
	DialTimeout time.Duration
}

// Wait dials addr until a connection succeeds or wait has elapsed.
// Every probe uses a fresh connection which is closed right away.
// A receive on exited aborts with ErrProcessExited; a nil channel is never ready.
func (p Poller) Wait(ctx context.Context, addr string, wait time.Duration, exited <-chan struct{}) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	dialTimeout := p.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}

	start := time.Now()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		if time.Since(start) > wait {
			return &StartupTimeoutError{Wait: wait}
		}

		d := net.Dialer{Timeout: dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if conn != nil {
			_ = conn.Close()
		}
		if err == nil {
			return nil
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return ErrProcessExited
		case <-timer.C:
		}
	}
}
