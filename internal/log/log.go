package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type Key struct{}

var LoggerKey = Key{}

// LevelTrace is a custom trace level for slog
// Using LevelDebug - 4 which equals -8
const LevelTrace = slog.LevelDebug - 4

func ConfigLevelStringToSlogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}

// NewLogger builds the CLI logger. Records at or above level are written to
// logOut as structured text, and error records are additionally rendered in a
// friendly form on errOut when mirroring is enabled.
func NewLogger(logOut io.Writer, errOut io.Writer, level string) *slog.Logger {
	lvl := ConfigLevelStringToSlogLevel(level)

	var primary slog.Handler
	if logOut != nil {
		primary = slog.NewTextHandler(logOut, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey {
					if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
						a.Value = slog.StringValue("TRACE")
					}
				}
				return a
			},
		})
	}

	var secondary slog.Handler
	if errOut != nil {
		secondary = NewFriendlyErrorHandler(errOut)
	}

	return slog.New(NewDualHandler(primary, secondary))
}

// FromContext returns the logger stored on ctx or a logger that discards
// everything.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
