// Package logging constructs the structured loggers used by the pizzamock
// command and the e2e suites.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a logger.
type Options struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Output is the writer for log output, os.Stderr if nil.
	Output io.Writer
	// Prefix is the component name prefix.
	Prefix string
	// ReportTimestamp adds timestamps to log entries.
	ReportTimestamp bool
}

// DefaultOptions returns the options used by the command.
func DefaultOptions() Options {
	return Options{
		Level:           "info",
		Output:          os.Stderr,
		Prefix:          "pizzamock",
		ReportTimestamp: true,
	}
}

// ParseLevel converts a level name to a log.Level, unknown names map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// New creates a new logger with the given options.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: opts.ReportTimestamp,
	})
}

// ForTest returns a logger that writes to w, with no timestamps, at the
// given level; the output of such a logger is stable across runs.
func ForTest(w io.Writer, level string) *log.Logger {
	return New(Options{Level: level, Output: w, Prefix: "httpmock"})
}
