// Package logging sets up the zerolog.Logger every component of reconcile
// takes or owns, replacing the teacher's bare log.Printf calls with
// structured, leveled output (spec AMBIENT STACK).
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger: human-readable console output when w is a
// terminal-like writer, parsed at level (one of zerolog's level names).
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger(), nil
}

// Default returns a logger writing to stderr at info level, for callers
// (tests, quick scripts) that don't need a configured level.
func Default() zerolog.Logger {
	log, err := New(os.Stderr, "info")
	if err != nil {
		panic(err) // "info" always parses
	}
	return log
}
