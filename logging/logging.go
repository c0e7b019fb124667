// Package logging builds the slog.Logger used by the madea server.
//
// LOG_FORMAT selects the handler:
//
//	LOG_FORMAT=json    structured JSON (default)
//	LOG_FORMAT=text    key=value pairs for local development
//
// LOG_LEVEL is one of debug, info, warn, error (default info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger configured from the environment, writing to stdout.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

// NewWithWriter returns a logger writing to w with the given format and level.
func NewWithWriter(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text", "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a LOG_LEVEL value to a slog.Level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
