//go:build unix

package liveserver

import (
	"os"

	"golang.org/x/sys/unix"
)

func interrupt(p *os.Process) error {
	return unix.Kill(p.Pid, unix.SIGINT)
}
