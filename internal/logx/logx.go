// Package logx sets up the structured logger shared by the binaries.
package logx

import (
	"io"
	"log/slog"
)

// LevelFromFlags returns the level selected by the user's flags:
//   - verbose: [slog.LevelDebug]
//   - quiet: [slog.LevelError]
//   - (default: [slog.LevelInfo])
//
// verbose wins when both are set.
func LevelFromFlags(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w at level and installs it as the
// slog default.
func New(w io.Writer, level slog.Level) *slog.Logger {
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}
