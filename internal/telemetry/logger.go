// Package telemetry provides the structured logger used across the
// simulator, adapted from the teacher's pkg/reporting/logger.go: a thin
// wrapper over zerolog with a Level/Format/Output config and a
// WithFields-style child-logger API. Logging is best-effort and must
// never mutate simulation state or consume simulation RNG (spec.md §7).
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging verbosity level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the wire format of emitted log lines.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is a structured logger wrapping zerolog.
type Logger struct {
	z zerolog.Logger
}

// New creates a Logger from cfg.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var out io.Writer = cfg.Output
	if cfg.Format == FormatText {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339, NoColor: false}
	}

	z := zerolog.New(out).With().Timestamp().Logger()
	switch cfg.Level {
	case LevelDebug:
		z = z.Level(zerolog.DebugLevel)
	case LevelWarn:
		z = z.Level(zerolog.WarnLevel)
	case LevelError:
		z = z.Level(zerolog.ErrorLevel)
	default:
		z = z.Level(zerolog.InfoLevel)
	}
	return &Logger{z: z}
}

func (l *Logger) addFields(e *zerolog.Event, fields ...interface{}) {
	if len(fields)%2 != 0 {
		e.Str("logger_error", "odd number of fields")
		return
	}
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e.Interface(key, fields[i+1])
	}
}

// Debug logs at debug level with key/value field pairs.
func (l *Logger) Debug(msg string, fields ...interface{}) {
	e := l.z.Debug()
	l.addFields(e, fields...)
	e.Msg(msg)
}

// Info logs at info level with key/value field pairs.
func (l *Logger) Info(msg string, fields ...interface{}) {
	e := l.z.Info()
	l.addFields(e, fields...)
	e.Msg(msg)
}

// Warn logs at warn level with key/value field pairs.
func (l *Logger) Warn(msg string, fields ...interface{}) {
	e := l.z.Warn()
	l.addFields(e, fields...)
	e.Msg(msg)
}

// Error logs at error level with key/value field pairs.
func (l *Logger) Error(msg string, fields ...interface{}) {
	e := l.z.Error()
	l.addFields(e, fields...)
	e.Msg(msg)
}

// WithField returns a child Logger with an additional field attached to
// every subsequent entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}
