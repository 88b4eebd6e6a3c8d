package liveserver

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAlreadyStarted = errors.New("live server is already running")
	ErrStopped        = errors.New("live server has been stopped")
	ErrProcessExited  = errors.New("live server process exited before it became ready")
	ErrStartupTimeout = errors.New("live server startup timed out")
	ErrResolvePort    = errors.New("failed to resolve a free port")
	ErrInvalidPort    = errors.New("invalid live server port")
	ErrLaunch         = errors.New("failed to launch live server process")
	ErrChildEnv       = errors.New("invalid live server process environment")
)

// StartupTimeoutError is returned by Start when the server did not accept
// connections within the wait budget.
type StartupTimeoutError struct {
	Wait time.Duration
}

func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("failed to start the live server after %s", e.Wait)
}

// Is makes errors.Is(err, ErrStartupTimeout) hold.
func (e *StartupTimeoutError) Is(target error) bool {
	return target == ErrStartupTimeout
}
