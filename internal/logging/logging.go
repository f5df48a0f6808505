// Package logging bootstraps the process-wide zerolog logger. Every
// subsystem logger carries a "component" field — the structured
// equivalent of the teacher's "[ComponentName]" Printf prefixes.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rawblock/pbn-detector/internal/config"
)

// New builds the root logger from a LoggingConfig: "json" emits
// zerolog's default structured output, anything else falls back to the
// human-readable console writer for local development.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	if !strings.EqualFold(cfg.Format, "json") {
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(console).With().Timestamp().Logger().Level(level)
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
}

// Component returns a child logger scoped to one subsystem, mirroring
// the teacher's bracketed log prefixes ("[AlertManager]", "[DP-Solver]")
// as a structured field instead of a string prefix.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
