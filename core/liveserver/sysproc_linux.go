//go:build linux

package liveserver

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Pdeathsig fires when the OS thread that spawned the child exits, not when
// the test process does, so it can kill a live server early or not at all.
// The child watching its stdin for EOF is what reliably stops it once the
// test process is gone; Pdeathsig only speeds that up on SIGKILL.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: unix.SIGKILL,
	}
}
