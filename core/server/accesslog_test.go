package server_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/livetest/core/logger"
	"github.com/dmitrymomot/livetest/core/server"
)

func TestAccessLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		slow    time.Duration
		level   string
		status  string
	}{
		{
			name:    "ok_at_debug",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) },
			level:   "level=DEBUG",
			status:  "status=200",
		},
		{
			name:    "server_error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			level:   "level=ERROR",
			status:  "status=500",
		},
		{
			name: "slow_request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(20 * time.Millisecond)
				w.WriteHeader(http.StatusNoContent)
			},
			slow:   time.Millisecond,
			level:  "level=WARN",
			status: "status=204",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelDebug))
			h := server.AccessLog(tt.handler, log, tt.slow)

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items", nil))

			out := buf.String()
			assert.Contains(t, out, tt.level)
			assert.Contains(t, out, tt.status)
			assert.Contains(t, out, "path=/items")
			assert.Contains(t, out, "method=GET")
		})
	}
}
