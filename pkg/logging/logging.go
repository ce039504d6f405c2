// Package logging provides the process-wide zerolog logger for log-parser.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger     *zerolog.Logger
	prettyMode atomic.Bool
)

func init() {
	l := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	logger = &l
}

// Config selects the level and format of the global logger.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", ...).
	// Empty means warn, which keeps stderr quiet for normal runs.
	Level string
	// Human switches to zerolog's console writer and adds human-readable
	// companions (size_h, duration_h, ...) to completion events.
	Human bool
	// Out defaults to os.Stderr.
	Out io.Writer
}

// Init configures the global logger.
func Init(cfg Config) error {
	level := zerolog.WarnLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var output zerolog.LevelWriter
	if cfg.Human {
		output = zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}}
	} else {
		output = zerolog.LevelWriterAdapter{Writer: out}
	}

	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	logger = &l
	SetPrettyMode(cfg.Human)
	return nil
}

// L returns the base logger.
func L() *zerolog.Logger {
	return logger
}

// WithPhase returns a logger with the phase field set.
func WithPhase(phase string) zerolog.Logger {
	return logger.With().Str("phase", phase).Logger()
}

// SetLogger allows overriding the global logger (useful for testing).
func SetLogger(l zerolog.Logger) {
	logger = &l
}

// IsPrettyMode reports whether completion events carry human-readable
// companion fields.
func IsPrettyMode() bool {
	return prettyMode.Load()
}

// SetPrettyMode toggles human-readable companion fields.
func SetPrettyMode(on bool) {
	prettyMode.Store(on)
}
