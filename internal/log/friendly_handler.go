package log

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// leadingKeys are printed right below the summary line, in this order.
var leadingKeys = []string{"resource", "status", "url", "suggestion"}

// NewFriendlyErrorHandler renders error records for a person reading stderr:
//
//	Error: request failed
//	  resource: parts
//	  status: 403
//	  detail: You do not have permission to perform this action.
func NewFriendlyErrorHandler(w io.Writer) slog.Handler {
	return &friendlyHandler{w: w}
}

type friendlyHandler struct {
	w      io.Writer
	attrs  []field
	prefix string
}

// field is a rendered attribute. key carries the group prefix, name does not.
type field struct {
	key   string
	name  string
	value string
}

func (h *friendlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *friendlyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		fields = h.appendAttr(fields, attr)
		return true
	})

	head, fromErr := summary(record.Message, fields)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", head)
	for _, key := range leadingKeys {
		for _, f := range fields {
			if f.key == key {
				writeField(&sb, f)
			}
		}
	}

	rest := slices.DeleteFunc(fields, func(f field) bool {
		return (fromErr && f.name == "error") || slices.Contains(leadingKeys, f.key)
	})
	slices.SortStableFunc(rest, func(a, b field) int { return cmp.Compare(a.key, b.key) })
	for _, f := range rest {
		writeField(&sb, f)
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *friendlyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clone(h.attrs)
	for _, attr := range attrs {
		next.attrs = h.appendAttr(next.attrs, attr)
	}
	return &next
}

func (h *friendlyHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendAttr keeps non-empty values only, so a missing status or url does not
// print an empty line.
func (h *friendlyHandler) appendAttr(fields []field, attr slog.Attr) []field {
	value := strings.TrimSpace(formatValue(attr.Value.Resolve()))
	if value == "" {
		return fields
	}
	return append(fields, field{key: h.prefix + attr.Key, name: attr.Key, value: value})
}

// summary falls back to the error attribute when the message is empty and
// reports whether it did.
func summary(msg string, fields []field) (string, bool) {
	if msg = strings.TrimSpace(msg); msg != "" {
		return msg, false
	}
	for _, f := range fields {
		if f.name == "error" {
			return f.value, true
		}
	}
	return "an unknown error occurred", false
}

func formatValue(val slog.Value) string {
	switch val.Kind() {
	case slog.KindGroup:
		parts := make([]string, 0, len(val.Group()))
		for _, attr := range val.Group() {
			parts = append(parts, attr.Key+"="+formatValue(attr.Value.Resolve()))
		}
		return strings.Join(parts, ", ")
	case slog.KindAny:
		if err, ok := val.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(val.Any())
	default:
		return val.String()
	}
}

// writeField indents continuation lines of multi-line values, which is how
// server validation errors usually arrive.
func writeField(sb *strings.Builder, f field) {
	first, more, _ := strings.Cut(f.value, "\n")
	fmt.Fprintf(sb, "  %s: %s\n", f.key, strings.TrimSpace(first))
	for line := range strings.SplitSeq(more, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(sb, "    %s\n", line)
		}
	}
}
