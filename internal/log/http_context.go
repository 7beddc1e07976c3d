package log

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

type httpLogContextKey struct{}

// HTTPLogContext contains contextual metadata emitted with HTTP trace logs.
type HTTPLogContext struct {
	CommandPath string
	CommandVerb string

	Resource   string
	TableKey   string
	Action     string
	Generation uint64
}

var HTTPLogContextKey = httpLogContextKey{}

// WithHTTPLogContext merges non-empty fields from update into ctx.
func WithHTTPLogContext(ctx context.Context, update HTTPLogContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	current := HTTPLogContextFromContext(ctx)
	mergeStringField(&current.CommandPath, update.CommandPath)
	mergeStringField(&current.CommandVerb, update.CommandVerb)
	mergeStringField(&current.Resource, update.Resource)
	mergeStringField(&current.TableKey, update.TableKey)
	mergeStringField(&current.Action, update.Action)
	if update.Generation != 0 {
		current.Generation = update.Generation
	}

	return context.WithValue(ctx, HTTPLogContextKey, current)
}

// HTTPLogContextFromContext extracts HTTP logging metadata from ctx.
func HTTPLogContextFromContext(ctx context.Context) HTTPLogContext {
	if ctx == nil {
		return HTTPLogContext{}
	}
	if value, ok := ctx.Value(HTTPLogContextKey).(HTTPLogContext); ok {
		return value
	}
	return HTTPLogContext{}
}

// HTTPLogContextAttrs converts context metadata to slog attributes.
func HTTPLogContextAttrs(ctx context.Context) []slog.Attr {
	meta := HTTPLogContextFromContext(ctx)
	attrs := make([]slog.Attr, 0, 6)

	appendStringAttr(&attrs, "command_path", meta.CommandPath)
	appendStringAttr(&attrs, "command_verb", meta.CommandVerb)
	appendStringAttr(&attrs, "resource", meta.Resource)
	appendStringAttr(&attrs, "table_key", meta.TableKey)
	appendStringAttr(&attrs, "action", meta.Action)
	if meta.Generation != 0 {
		appendStringAttr(&attrs, "generation", strconv.FormatUint(meta.Generation, 10))
	}

	return attrs
}

func mergeStringField(target *string, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*target = trimmed
}

func appendStringAttr(attrs *[]slog.Attr, key, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*attrs = append(*attrs, slog.String(key, trimmed))
}
