//go:build windows

package liveserver

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
