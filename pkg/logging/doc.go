// Package logging provides a process-wide structured logger for simjoin.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. All packages
// should obtain a logger through this package rather than constructing
// their own slog.Logger values, so that log level and output destination
// are controlled from a single place.
//
// Call Init once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily so that packages which log during init are safe.
//
// WithRun and WithJob attach run/job identifiers for the orchestration
// layer's progress and cleanup messages.
package logging
