package liveserver

import (
	"os"
	"time"

	"github.com/dmitrymomot/livetest/core/logger"
)

const (
	// DefaultStopTimeout bounds the wait for a cooperative shutdown.
	DefaultStopTimeout = 5 * time.Second

	// reapTimeout bounds the wait for a killed process to be reaped.
	reapTimeout = 5 * time.Second
)

// StopOutcome tells which shutdown path Stop took.
type StopOutcome int

const (
	// StopNoop means there was nothing to stop.
	StopNoop StopOutcome = iota
	// StopClean means the process exited after SIGINT.
	StopClean
	// StopForced means the process had to be killed.
	StopForced
	// StopExited means the process had already exited on its own.
	StopExited
)

func (o StopOutcome) String() string {
	switch o {
	case StopNoop:
		return "noop"
	case StopClean:
		return "clean"
	case StopForced:
		return "forced"
	case StopExited:
		return "exited"
	}
	return "unknown"
}

// Stop shuts the live server process down and reports how.
// Calling Stop more than once or before Start is safe.
func (s *LiveServer) Stop() StopOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil || s.state == StateStopped {
		return StopNoop
	}
	s.state = StateStopped

	start := time.Now()
	log := s.logger.With(logger.PID(s.proc.Pid()))

	var outcome StopOutcome
	switch {
	case !processAlive(s.proc):
		outcome = StopExited
	case s.cleanStop && s.stopCleanly(s.stopTimeout):
		outcome = StopClean
	case processAlive(s.proc):
		s.forceStop()
		outcome = StopForced
	default:
		outcome = StopExited
	}

	log.Info("live server stopped", logger.Group("stop",
		logger.Result(outcome.String()),
		logger.Elapsed(start),
	))
	return outcome
}

// stopCleanly sends SIGINT and waits up to timeout for the process to exit.
// It reports false when the signal could not be delivered or the process
// outlived the timeout.
func (s *LiveServer) stopCleanly(timeout time.Duration) bool {
	log := s.logger.With(logger.PID(s.proc.Pid()), logger.Signal(os.Interrupt))

	if err := s.proc.Interrupt(); err != nil {
		log.Warn("failed to interrupt live server, falling back to kill", logger.Error(err))
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.proc.Done():
		return true
	case <-timer.C:
		log.Warn("live server did not exit after interrupt, falling back to kill", logger.Timeout(timeout))
		return false
	}
}

func (s *LiveServer) forceStop() {
	if err := s.proc.Kill(); err != nil {
		s.logger.Warn("failed to kill live server", logger.PID(s.proc.Pid()), logger.Error(err))
	}

	timer := time.NewTimer(reapTimeout)
	defer timer.Stop()

	select {
	case <-s.proc.Done():
	case <-timer.C:
		s.logger.Error("live server was not reaped after kill", logger.PID(s.proc.Pid()), logger.Timeout(reapTimeout))
	}
}

func processAlive(p Process) bool {
	select {
	case <-p.Done():
		return false
	default:
		return true
	}
}
