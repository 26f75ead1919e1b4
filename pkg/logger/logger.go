// Package logger builds the structured slog logger used across the placement hub
// and carries it through request contexts.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel parses a string into a slog level. Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures a logger.
type Options struct {
	Level  string
	Format string // "json" or "text"
	Output io.Writer
}

// New creates a logger writing to stdout.
func New(level, format string) *slog.Logger {
	return NewWithOptions(Options{Level: level, Format: format})
}

// NewWithOptions creates a logger from explicit options.
func NewWithOptions(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: ParseLevel(opts.Level) == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN FIELDS
// ══════════════════════════════════════════════════════════════════════════════

func UserID(id string) slog.Attr { return slog.String("user_id", id) }
func RequestID(id string) slog.Attr { return slog.String("request_id", id) }
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }
