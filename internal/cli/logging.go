package cli

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger on w. Verbose forces debug level.
func NewLogger(w io.Writer, verbose bool, level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
