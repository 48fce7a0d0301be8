// Package logging builds the console logger shared by the CLI, the
// instrumenter and the watcher.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a human-readable logger writing to out, or stderr when out is
// nil. Debug messages are only emitted when verbose is set.
func New(out io.Writer, verbose bool) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.TimeOnly,
		NoColor:    out != os.Stderr,
	}).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
