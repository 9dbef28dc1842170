package logging

import (
	"log/slog"
)

// WithRun creates a logger with run context. Every log line of one join run
// shares the run identifier, so concurrent runs writing to the same output
// remain distinguishable.
func WithRun(runID string) *slog.Logger {
	return GetLogger().With("run_id", runID)
}

// WithJob creates a logger with run and job context. Use this inside
// dispatched units of work.
func WithJob(runID string, jobIndex int) *slog.Logger {
	return GetLogger().With("run_id", runID, "job", jobIndex)
}
