package server

import "time"

// Config holds server tuning with environment variable support.
// The live server process loads it with config.Load, so timeouts can be
// adjusted per test run without code changes.
type Config struct {
	ReadTimeout     time.Duration `env:"LIVETEST_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `env:"LIVETEST_SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `env:"LIVETEST_SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"LIVETEST_SERVER_SHUTDOWN_TIMEOUT"`
	MaxHeaderBytes  int           `env:"LIVETEST_SERVER_MAX_HEADER_BYTES"`
	AccessLog       bool          `env:"LIVETEST_SERVER_ACCESS_LOG" envDefault:"true"`
	SlowRequest     time.Duration `env:"LIVETEST_SERVER_SLOW_REQUEST"`
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxHeaderBytes:  DefaultMaxHeaderBytes,
		AccessLog:       true,
		SlowRequest:     DefaultSlowRequestThreshold,
	}
}

// Options converts the configuration into server options.
// Non-positive values are skipped so the defaults apply.
func (c Config) Options() []Option {
	opts := make([]Option, 0, 6)
	if c.ReadTimeout > 0 {
		opts = append(opts, WithReadTimeout(c.ReadTimeout))
	}
	if c.WriteTimeout > 0 {
		opts = append(opts, WithWriteTimeout(c.WriteTimeout))
	}
	if c.IdleTimeout > 0 {
		opts = append(opts, WithIdleTimeout(c.IdleTimeout))
	}
	if c.ShutdownTimeout > 0 {
		opts = append(opts, WithShutdownTimeout(c.ShutdownTimeout))
	}
	if c.MaxHeaderBytes > 0 {
		opts = append(opts, WithMaxHeaderBytes(c.MaxHeaderBytes))
	}
	if c.AccessLog {
		opts = append(opts, WithAccessLog(c.SlowRequest))
	}
	return opts
}
