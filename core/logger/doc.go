// Package logger provides structured logging helpers built on Go's standard slog package.
//
// Loggers are created with functional options:
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithOutput(os.Stderr),
//		logger.WithAttr(logger.Component("liveserver")),
//	)
//
// Attribute helpers return an empty slog.Attr for nil or zero identifiers,
// so they can be passed unconditionally:
//
//	log.Error("failed to interrupt live server", logger.Error(err), logger.PID(pid))
//
// Discard returns a logger that drops every record and is the default for
// library components that were not given a logger.
package logger
