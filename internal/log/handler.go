package log

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// suppressed counts active SuppressErrorMirroring calls. Error records reach the
// secondary handler only while it is zero.
var suppressed atomic.Int32

// SuppressErrorMirroring keeps error records off the secondary handler until
// the returned function is called. Calls nest.
func SuppressErrorMirroring() (restore func()) {
	suppressed.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { suppressed.Add(-1) })
	}
}

func mirroring() bool {
	return suppressed.Load() == 0
}

// NewDualHandler sends every record to primary and error records to secondary.
// Either handler may be nil.
func NewDualHandler(primary slog.Handler, secondary slog.Handler) slog.Handler {
	return &dualHandler{primary: primary, secondary: secondary}
}

type dualHandler struct {
	primary   slog.Handler
	secondary slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return enabled(ctx, h.primary, level) || (h.mirrors(level) && enabled(ctx, h.secondary, level))
}

func (h *dualHandler) Handle(ctx context.Context, record slog.Record) error {
	if enabled(ctx, h.primary, record.Level) {
		if err := h.primary.Handle(ctx, record); err != nil {
			return err
		}
	}
	if h.mirrors(record.Level) && enabled(ctx, h.secondary, record.Level) {
		return h.secondary.Handle(ctx, record.Clone())
	}
	return nil
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h *dualHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := &dualHandler{}
	if h.primary != nil {
		next.primary = fn(h.primary)
	}
	if h.secondary != nil {
		next.secondary = fn(h.secondary)
	}
	return next
}

func (h *dualHandler) mirrors(level slog.Level) bool {
	return h.secondary != nil && level >= slog.LevelError && mirroring()
}

func enabled(ctx context.Context, h slog.Handler, level slog.Level) bool {
	return h != nil && h.Enabled(ctx, level)
}
