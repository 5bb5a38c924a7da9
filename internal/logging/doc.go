// Package logging provides structured JSON logging for the devlaunch tools.
//
// It wraps log/slog with a JSON handler. Each tool writes to a debug.log file
// under its data directory (the profile root for chrome-remote-debug, the
// worktree base directory for gwm) so failures can be analyzed after the
// terminal output is gone.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(logDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("chrome ready", "port", 9222, "pid", pid)
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	sessionLogger := logger.WithSession(id).WithProfile("dev")
//	sessionLogger.Warn("lock file presence uncertain", "path", lockPath)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"lock file presence uncertain","session_id":"...","profile":"dev","path":"..."}
//
// # Log Rotation
//
// [RotatingWriter] renames debug.log to debug.log.1 once it would exceed
// MaxSizeMB, shifting older backups up and keeping at most MaxBackups of them.
//
// # Testing
//
// Use [NopLogger] to discard output. Every constructor in this module that
// accepts a *Logger also treats nil as a NopLogger.
//
// # Thread Safety
//
// [Logger] and [RotatingWriter] are safe for concurrent use. Child loggers
// share the parent's writer.
package logging
