package common

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the JSON logger shared by all commands.
func NewLogger(quiet, debug bool) *slog.Logger {
	return newLogger(os.Stderr, quiet, debug)
}

func newLogger(w io.Writer, quiet, debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	if quiet {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
