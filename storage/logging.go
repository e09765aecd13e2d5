package storage

import (
	"os"

	"github.com/rs/zerolog"
)

// log is the package-wide structured logger. It follows the same
// github.com/rs/zerolog/log idiom the pack's own clock-based page pool
// (mtrqq-squirrel) uses for eviction tracing: debug-level events for state
// transitions an operator never needs to see, warn/error for conditions a
// caller should be able to correlate across a run. Logging never changes
// control flow -- every call site that logs an error also returns one.
var log zerolog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	Level(zerolog.InfoLevel).
	With().Timestamp().Logger()

// SetLogger replaces the package logger. Tests and embedding applications
// can use this to silence output or redirect it to a buffer.
func SetLogger(l zerolog.Logger) {
	log = l
}
