package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     atomic.Pointer[slog.Logger]
	loggerOnce sync.Once
	minLevel   = new(slog.LevelVar)
)

// initLogger initializes the global logger to write colored, timestamped
// lines to stderr.
func initLogger() {
	loggerOnce.Do(func() {
		minLevel.Set(slog.LevelInfo)
		logger.Store(newLogger(os.Stderr))
	})
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      minLevel,
		TimeFormat: time.RFC3339Nano,
	}))
}

// SetOutput redirects log output to w with colors disabled. It is safe to
// call while other goroutines are logging.
func SetOutput(w io.Writer) {
	initLogger()
	logger.Store(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      minLevel,
		TimeFormat: time.RFC3339Nano,
		NoColor:    true,
	})))
}

func SetLevel(l Level) {
	initLogger()
	minLevel.Set(l.slog())
}

// ParseLevel maps a config/env string such as "debug" or "WARN" to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Load().Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Load().Info(msg, kv...)
}

// Warn logs a recoverable problem. err is attached the same way as in Error
// and may be nil.
func Warn(msg string, err error, kv ...any) {
	initLogger()
	if err != nil {
		kv = append([]any{tint.Err(err)}, kv...)
	}
	logger.Load().Warn(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	// Prepend error into key-value list.
	extended := append([]any{tint.Err(err)}, kv...)
	logger.Load().Error(msg, extended...)
}
