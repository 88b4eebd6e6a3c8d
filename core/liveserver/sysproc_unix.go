//go:build unix && !linux

package liveserver

import "syscall"

// Own process group keeps terminal SIGINTs meant for `go test` away from the
// live server; the stdin watcher handles parent death.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
