// Package logger provides structured logging, context-aware logger
// injection, and redaction of user-visible message content.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type ctxKey struct{}

// Redaction modes controlling how message text appears in log records.
const (
	RedactDebug    = "debug"    // full text
	RedactSafe     = "safe"     // truncated prefix
	RedactParanoid = "paranoid" // length only
)

// L is the global default logger; initialize with Init or use FromContext for request-scoped loggers.
var (
	L         = slog.Default()
	logKey    = ctxKey{}
	redaction = RedactSafe
)

// Init initializes the global logger with the given level, format
// (e.g. "debug", "json"), and redaction mode.
func Init(level, format, redact string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	switch strings.ToLower(redact) {
	case RedactDebug, RedactSafe, RedactParanoid:
		redaction = strings.ToLower(redact)
	default:
		redaction = RedactSafe
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// FromContext returns the logger from ctx, or the global logger if not set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(logKey).(*slog.Logger); ok {
		return l
	}
	return L
}

// WithContext stores the logger in ctx and returns the new context.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, logKey, l)
}

// Text renders user message text for logging according to the active
// redaction mode.
func Text(text string) string {
	switch redaction {
	case RedactDebug:
		return text
	case RedactParanoid:
		return "<" + strconv.Itoa(len(text)) + " chars>"
	default:
		const limit = 32
		trimmed := strings.TrimSpace(text)
		if len(trimmed) <= limit {
			return trimmed
		}
		return trimmed[:limit] + "..."
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs at debug level with the global logger (slog.Attr or key-value pairs).
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at info level with the global logger.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at warn level with the global logger.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at error level with the global logger.
func Error(msg string, args ...any) { L.Error(msg, args...) }
