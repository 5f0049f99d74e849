// Package logging builds the zerolog loggers used by the engine and the CLI.
package logging

import (
	"database/sql"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains logger configuration.
type Config struct {
	// Level sets the logging level (trace, debug, info, warn, error, disabled).
	Level string
	// Pretty enables human-readable console output.
	Pretty bool
	// NoColor disables colors in pretty output.
	NoColor bool
	// Output sets the output writer (defaults to os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: true,
		Output: os.Stderr,
	}
}

// ParseLevel maps a level name to a zerolog level. Unknown names yield info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

// New creates a zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.TimeOnly,
			NoColor:    cfg.NoColor,
		}
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// NewWithComponent creates a logger with a component field.
func NewWithComponent(cfg Config, component string) zerolog.Logger {
	return New(cfg).With().Str("component", component).Logger()
}

// DeferClose closes closer and logs a failure at warn. Use it in defer
// statements where the close error has nowhere else to go.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// DeferRollback rolls tx back and logs a failure. sql.ErrTxDone, returned
// after a successful commit, is ignored.
func DeferRollback(logger zerolog.Logger, tx *sql.Tx) {
	if tx == nil {
		return
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Warn().Err(err).Msg("transaction rollback failed")
	}
}
