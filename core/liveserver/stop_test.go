package liveserver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livetest/core/liveserver"
)

func startFake(t *testing.T, proc *fakeProcess, opts ...liveserver.Option) (*liveserver.LiveServer, *fakeLauncher) {
	t.Helper()
	l := newFakeLauncher(proc)
	srv, err := liveserver.New(pingApp, append([]liveserver.Option{
		liveserver.WithLauncher(l),
		liveserver.WithHost("127.0.0.1"),
	}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	return srv, l
}

func TestStopClean(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{exitOnInterrupt: true}
	srv, _ := startFake(t, proc)

	assert.Equal(t, liveserver.StopClean, srv.Stop())
	assert.EqualValues(t, 1, proc.interrupts.Load())
	assert.EqualValues(t, 0, proc.kills.Load())
	assert.False(t, srv.Alive())
	assert.Equal(t, liveserver.StateStopped, srv.State())
}

func TestStopForcedAfterTimeout(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{}
	srv, _ := startFake(t, proc, liveserver.WithStopTimeout(50*time.Millisecond))

	start := time.Now()
	assert.Equal(t, liveserver.StopForced, srv.Stop())
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.EqualValues(t, 1, proc.interrupts.Load())
	assert.EqualValues(t, 1, proc.kills.Load())
}

func TestStopForcedWhenSignalFails(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{interruptErr: errNoSignal}
	srv, _ := startFake(t, proc)

	assert.Equal(t, liveserver.StopForced, srv.Stop())
	assert.EqualValues(t, 1, proc.kills.Load())
}

func TestStopWithoutCleanStop(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{exitOnInterrupt: true}
	srv, _ := startFake(t, proc, liveserver.WithCleanStop(false))

	assert.Equal(t, liveserver.StopForced, srv.Stop())
	assert.EqualValues(t, 0, proc.interrupts.Load())
	assert.EqualValues(t, 1, proc.kills.Load())
}

func TestStopAlreadyExited(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{}
	srv, _ := startFake(t, proc)
	proc.exit()

	assert.Equal(t, liveserver.StopExited, srv.Stop())
	assert.EqualValues(t, 0, proc.interrupts.Load())
	assert.EqualValues(t, 0, proc.kills.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	proc := &fakeProcess{exitOnInterrupt: true}
	srv, _ := startFake(t, proc)

	assert.Equal(t, liveserver.StopClean, srv.Stop())
	assert.Equal(t, liveserver.StopNoop, srv.Stop())
	assert.EqualValues(t, 1, proc.interrupts.Load())
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	srv, err := liveserver.New(pingApp, liveserver.WithLauncher(newFakeLauncher(&fakeProcess{})))
	require.NoError(t, err)

	assert.Equal(t, liveserver.StopNoop, srv.Stop())
	assert.Equal(t, liveserver.StateUnstarted, srv.State())
}

func TestStopOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "noop", liveserver.StopNoop.String())
	assert.Equal(t, "clean", liveserver.StopClean.String())
	assert.Equal(t, "forced", liveserver.StopForced.String())
	assert.Equal(t, "exited", liveserver.StopExited.String())
}
