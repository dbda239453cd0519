// Package log holds the process wide logging setup and the helpers used to
// carry a logger through a context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

var loggerCtxKey = ctxKey{}

// Debug enables debug logs and the storing of additional debugging
// artifacts (page snapshots of passing scenarios, raw html of inspected pages).
var Debug bool

func level() slog.Level {
	if Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func InitializeDefaultLogger() {
	slog.SetDefault(NewLogger(os.Stdout))
}

// NewLogger returns a text logger writing to w using the current log level.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level()}))
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
