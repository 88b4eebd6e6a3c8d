package server

import "errors"

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrBind                 = errors.New("failed to bind server address")
	ErrHTTPServer           = errors.New("HTTP server error")
	ErrShutdown             = errors.New("HTTP shutdown error")
)
