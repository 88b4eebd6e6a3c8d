package logger

import (
	"log/slog"
	"os"
	"time"
)

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Error Handling
// ============================================================================

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// ============================================================================
// Timing
// ============================================================================

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Timeout creates an attribute for a configured timeout.
func Timeout(d time.Duration) slog.Attr {
	return slog.Duration("timeout", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ============================================================================
// Processes and Network
// ============================================================================

// PID creates an attribute for an operating system process identifier.
// Returns empty Attr for non-positive values.
func PID(pid int) slog.Attr {
	if pid <= 0 {
		return slog.Attr{}
	}
	return slog.Int("pid", pid)
}

// Signal creates an attribute naming a delivered signal.
func Signal(sig os.Signal) slog.Attr {
	if sig == nil {
		return slog.Attr{}
	}
	return slog.String("signal", sig.String())
}

// Addr creates an attribute for a network address.
func Addr(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("addr", addr)
}

// URL creates an attribute for a URL.
func URL(u string) slog.Attr {
	if u == "" {
		return slog.Attr{}
	}
	return slog.String("url", u)
}

// InstanceID creates an attribute identifying a live server instance.
func InstanceID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("instance_id", id)
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// App creates an attribute for the registered application name.
func App(name string) slog.Attr {
	return slog.String("app", name)
}

// Scope creates an attribute for a live server scope.
func Scope(name string) slog.Attr {
	return slog.String("scope", name)
}

// Action creates an attribute for action names.
func Action(action string) slog.Attr {
	return slog.String("action", action)
}

// Result creates an attribute for operation results.
func Result(result string) slog.Attr {
	return slog.String("result", result)
}

// Key creates a generic key-value attribute.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}
