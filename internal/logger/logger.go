package logger

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger with a JSON writer on stdout.
// It ensures that the logger is initialized only once.
func Init() {
	once.Do(func() {
		defaultLogger = zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().Timestamp().Logger()
	})
}

// SetLevel adjusts the global log level ("debug", "info", "warn", "error").
func SetLevel(level string) {
	if parsed, err := zerolog.ParseLevel(level); err == nil {
		defaultLogger = Get().Level(parsed)
	}
}

// Get returns the initialized default logger.
func Get() zerolog.Logger {
	Init()
	return defaultLogger
}

// Info logs an informational message with alternating key/value pairs.
func Info(msg string, args ...any) {
	l := Get()
	withFields(l.Info(), args).Msg(msg)
}

// Warn logs a warning message with alternating key/value pairs.
func Warn(msg string, args ...any) {
	l := Get()
	withFields(l.Warn(), args).Msg(msg)
}

// Error logs an error message with alternating key/value pairs.
func Error(msg string, err error, args ...any) {
	l := Get()
	withFields(l.Error().Err(err), args).Msg(msg)
}

// Debug logs a debug message with alternating key/value pairs.
func Debug(msg string, args ...any) {
	l := Get()
	withFields(l.Debug(), args).Msg(msg)
}

func withFields(ev *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	return ev
}
