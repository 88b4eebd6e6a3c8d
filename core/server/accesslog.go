package server

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/livetest/core/logger"
)

// DefaultSlowRequestThreshold marks requests logged at warn level.
const DefaultSlowRequestThreshold = 2 * time.Second

// AccessLog wraps next and logs every completed request. Requests are logged
// at debug level; 5xx responses at error and slow requests at warn.
func AccessLog(next http.Handler, log *slog.Logger, slow time.Duration) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	if slow <= 0 {
		slow = DefaultSlowRequestThreshold
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(rw, r)

		status := rw.statusCode
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("size", rw.size),
			logger.Duration(duration),
		}

		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case duration > slow:
			level = slog.LevelWarn
			attrs = append(attrs, slog.Bool("slow_request", true))
		}

		log.LogAttrs(r.Context(), level, "request completed", attrs...)
	})
}

// responseWriter captures the status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	size          int
	headerWritten bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.headerWritten {
		rw.statusCode = statusCode
		rw.headerWritten = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack supports websocket upgrades through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	rw.headerWritten = true
	return h.Hijack()
}
