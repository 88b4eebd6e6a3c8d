package liveserver

import (
	"fmt"
	"net"
)

// ResolvePort returns port unchanged when it is non-zero. Zero asks the OS for
// a currently free port by binding to it and releasing it right away.
// Another process may grab the port before the live server binds it; the
// live server then exits early and Start reports ErrProcessExited.
func ResolvePort(port int) (int, error) {
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	if port != 0 {
		return port, nil
	}

	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrResolvePort, err)
	}
	defer ln.Close()

	return ln.Addr().(*net.TCPAddr).Port, nil
}
