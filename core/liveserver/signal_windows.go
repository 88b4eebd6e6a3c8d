//go:build windows

package liveserver

import "os"

// Windows has no SIGINT for other processes; the error makes Stop fall back to Kill.
func interrupt(p *os.Process) error {
	return p.Signal(os.Interrupt)
}
