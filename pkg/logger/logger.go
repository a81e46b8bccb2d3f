// Package logger builds the single zerolog.Logger every component in
// this repository takes as a constructor argument, mirroring the
// teacher's own logger.New(logger.Config{Level, Pretty}) call sites
// (see cmd/server/main.go).
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the logger's verbosity and output format.
type Config struct {
	Level  string // "debug", "info", "warn", "error"; defaults to "info"
	Pretty bool   // human-readable console output instead of JSON lines
}

// New builds a zerolog.Logger writing to stderr, with a timestamp on
// every event.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	writer := os.Stderr
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}).
			Level(level).
			With().
			Timestamp().
			Logger()
	}

	return logger
}
