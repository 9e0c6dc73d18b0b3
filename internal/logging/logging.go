// Package logging builds the process-wide structured logger, grounded on
// the teacher's internal/api/middleware/logger.go NewLogger: JSON output
// for production, a more readable text handler plus source location in
// debug mode.
package logging

import (
	"log/slog"
	"os"
)

// New creates a structured logger. debug=true adds source file/line and
// switches to a human-readable text handler; false (production) emits
// JSON to stderr for log aggregation.
func New(debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: debug,
	}
	if debug {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
