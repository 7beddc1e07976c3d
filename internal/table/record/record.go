// Package record defines the typed row schema a table validates its rows against.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared type of a column value.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDate
)

const DateLayout = "2006-01-02"

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindAny:
	}
	return "any"
}

// KindFromString parses a kind name as it appears in resource definitions.
func KindFromString(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return KindAny, nil
	case "string", "text":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "decimal", "number":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "date":
		return KindDate, nil
	}
	return KindAny, fmt.Errorf("unknown column kind %q", s)
}

// Column is one named, typed field of a record.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema is the set of typed columns declared for a table. Fields not declared
// are kept as decoded.
type Schema struct {
	PrimaryKey string
	Columns    []Column
}

// DefaultPrimaryKey is the primary key field of InvenTree records.
const DefaultPrimaryKey = "pk"

func (s Schema) primaryKey() string {
	if s.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return s.PrimaryKey
}

// Record is a validated row.
type Record struct {
	pk     any
	values map[string]any
}

// Validate checks a decoded row against the schema and coerces declared columns.
func (s Schema) Validate(raw any) (Record, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("row is %T, not an object", raw)
	}

	values := make(map[string]any, len(obj))
	for k, v := range obj {
		values[k] = v
	}

	for _, col := range s.Columns {
		v, present := lookup(values, col.Name)
		if !present || v == nil {
			if col.Required {
				return Record{}, fmt.Errorf("missing required field %q", col.Name)
			}
			continue
		}
		coerced, err := Coerce(col.Kind, v)
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", col.Name, err)
		}
		if !strings.Contains(col.Name, ".") {
			values[col.Name] = coerced
		}
	}

	// the key keeps the type the server sent, declared coercion aside
	pk, _ := lookup(obj, s.primaryKey())
	return Record{pk: pkValue(pk), values: values}, nil
}

// New builds a record without validation, mostly for tests.
func New(values map[string]any) Record {
	pk, _ := lookup(values, DefaultPrimaryKey)
	return Record{pk: pkValue(pk), values: values}
}

// PK returns the primary key in string form.
func (r Record) PK() string {
	return scalarString(r.pk)
}

// PKValue returns the primary key as sent by the server. Integral JSON numbers
// are int64; strings are returned unchanged, so "0012" stays "0012".
func (r Record) PKValue() any {
	return r.pk
}

func pkValue(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
	case int:
		return int64(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		return t.String()
	}
	return v
}

// Get resolves a possibly dotted path such as supplier.name.
func (r Record) Get(path string) (any, bool) {
	return lookup(r.values, path)
}

// Display renders a field for a table cell.
func (r Record) Display(path string) string {
	v, ok := r.Get(path)
	if !ok || v == nil {
		return ""
	}
	return scalarString(v)
}

// Raw returns the underlying values.
func (r Record) Raw() map[string]any {
	return r.values
}

func lookup(values map[string]any, path string) (any, bool) {
	if v, ok := values[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var cur any = values
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Coerce converts a decoded JSON value to the Go type of kind.
func Coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindAny:
		return v, nil
	case KindString:
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return scalarString(v), nil
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindBool:
		return toBool(v)
	case KindDate:
		return toDate(v)
	}
	return nil, fmt.Errorf("unsupported kind %d", kind)
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("expected integer, got %v", t)
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		return t.Int64()
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", t)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("expected boolean, got %q", t)
		}
		return b, nil
	}
	return false, fmt.Errorf("expected boolean, got %T", v)
}

func toDate(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("expected date string, got %T", v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected date, got %q", s)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(DateLayout)
		}
		return t.Format(time.RFC3339)
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
	return fmt.Sprint(v)
}
