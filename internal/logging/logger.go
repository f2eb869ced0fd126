// Package logging builds the daemon's zerolog logger from configuration.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/lutron-bridge/internal/config"
)

// New creates a logger writing to the configured output.
//
// Format "json" writes one JSON object per line; anything else uses the
// human-readable console writer. Every line carries service and version.
func New(cfg config.LoggingConfig, version string) zerolog.Logger {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		out = os.Stdout
	default:
		out = os.Stderr
	}
	return NewWithWriter(cfg, version, out)
}

// NewWithWriter is New with an explicit destination. Useful for tests.
func NewWithWriter(cfg config.LoggingConfig, version string, out io.Writer) zerolog.Logger {
	if strings.ToLower(cfg.Format) != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stderr}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "lutron-bridge").
		Str("version", version).
		Logger()
}

// ParseLevel converts a level name to a zerolog level.
// Supported levels: debug, info, warn, error. Defaults to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
