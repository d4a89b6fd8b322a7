// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger writing to w. Format "json" writes one JSON object
// per line; anything else writes human readable console output.
func New(w io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger().Level(level)
}

// Configure installs a logger for levelStr and format as the global logger
// and returns it. An unknown level falls back to info.
func Configure(levelStr, format string) zerolog.Logger {
	level := ParseLevel(levelStr)
	zerolog.SetGlobalLevel(level)
	log.Logger = New(os.Stderr, level, format)
	zerolog.DefaultContextLogger = &log.Logger
	return log.Logger
}

// ParseLevel converts a level name to a zerolog.Level.
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		log.Warn().Err(err).Str("logLevel", s).Msg("Invalid log level provided. Defaulting to info level.")
		return zerolog.InfoLevel
	}
	return level
}
