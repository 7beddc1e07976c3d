package forms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/table/record"
)

// Kind is the closed set of field kinds a form understands. Every kind parses
// command line input and describes itself for prompts.
type Kind interface {
	// Name is the kind identifier shown to users.
	Name() string
	// Parse converts a command line value into the JSON value sent to the server.
	Parse(raw string) (any, error)
	// Describe is the short prompt description of accepted input.
	Describe() string

	sealed()
}

type (
	StringKind   struct{ MaxLength int }
	IntegerKind  struct{}
	FloatKind    struct{}
	DecimalKind  struct{}
	BooleanKind  struct{}
	ChoiceKind   struct{ Choices []metadata.Choice }
	DateKind     struct{}
	DateTimeKind struct{}
	RelatedKind  struct{ Model string }
	NestedKind   struct{}
	FileKind     struct{}
	UnknownKind  struct{ Type string }
)

func (StringKind) sealed()   {}
func (IntegerKind) sealed()  {}
func (FloatKind) sealed()    {}
func (DecimalKind) sealed()  {}
func (BooleanKind) sealed()  {}
func (ChoiceKind) sealed()   {}
func (DateKind) sealed()     {}
func (DateTimeKind) sealed() {}
func (RelatedKind) sealed()  {}
func (NestedKind) sealed()   {}
func (FileKind) sealed()     {}
func (UnknownKind) sealed()  {}

// KindOf maps a server field type onto a kind.
func KindOf(f metadata.Field) Kind {
	switch strings.ToLower(f.Type) {
	case "string", "email", "url", "slug", "password":
		return StringKind{MaxLength: f.MaxLength}
	case "integer":
		return IntegerKind{}
	case "float":
		return FloatKind{}
	case "decimal":
		return DecimalKind{}
	case "boolean":
		return BooleanKind{}
	case "choice", "multiple choice":
		return ChoiceKind{Choices: f.Choices}
	case "date":
		return DateKind{}
	case "datetime":
		return DateTimeKind{}
	case "related field":
		return RelatedKind{Model: f.Model}
	case "nested object", "dependent field":
		return NestedKind{}
	case "file upload", "image upload":
		return FileKind{}
	}
	if len(f.Children) > 0 {
		return NestedKind{}
	}
	return UnknownKind{Type: f.Type}
}

func (StringKind) Name() string { return "string" }

func (k StringKind) Parse(raw string) (any, error) {
	if k.MaxLength > 0 && len([]rune(raw)) > k.MaxLength {
		return nil, fmt.Errorf("at most %d characters allowed", k.MaxLength)
	}
	return raw, nil
}

func (k StringKind) Describe() string {
	if k.MaxLength > 0 {
		return fmt.Sprintf("text, up to %d characters", k.MaxLength)
	}
	return "text"
}

func (IntegerKind) Name() string { return "integer" }

func (IntegerKind) Parse(raw string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a whole number", raw)
	}
	return n, nil
}

func (IntegerKind) Describe() string { return "whole number" }

func (FloatKind) Name() string { return "float" }

func (FloatKind) Parse(raw string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	return f, nil
}

func (FloatKind) Describe() string { return "number" }

func (DecimalKind) Name() string { return "decimal" }

// Parse keeps decimals as strings so no precision is lost on the way to the server.
func (DecimalKind) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return nil, fmt.Errorf("%q is not a decimal number", raw)
	}
	return raw, nil
}

func (DecimalKind) Describe() string { return "decimal number" }

func (BooleanKind) Name() string { return "boolean" }

func (BooleanKind) Parse(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "on":
		return true, nil
	case "n", "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%q is not true or false", raw)
	}
	return b, nil
}

func (BooleanKind) Describe() string { return "true or false" }

func (ChoiceKind) Name() string { return "choice" }

func (k ChoiceKind) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	for _, c := range k.Choices {
		if strings.EqualFold(fmt.Sprint(c.Value), raw) || strings.EqualFold(c.DisplayName, raw) {
			return c.Value, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of %s", raw, k.values())
}

func (k ChoiceKind) Describe() string {
	return "one of " + k.values()
}

func (k ChoiceKind) values() string {
	vals := make([]string, 0, len(k.Choices))
	for _, c := range k.Choices {
		vals = append(vals, fmt.Sprint(c.Value))
	}
	return strings.Join(vals, ", ")
}

func (DateKind) Name() string { return "date" }

func (DateKind) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse(record.DateLayout, raw); err != nil {
		return nil, fmt.Errorf("%q is not a date (YYYY-MM-DD)", raw)
	}
	return raw, nil
}

func (DateKind) Describe() string { return "date, YYYY-MM-DD" }

func (DateTimeKind) Name() string { return "datetime" }

func (DateTimeKind) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%q is not an RFC 3339 timestamp", raw)
	}
	return t.Format(time.RFC3339), nil
}

func (DateTimeKind) Describe() string { return "timestamp, RFC 3339" }

func (RelatedKind) Name() string { return "related" }

func (RelatedKind) Parse(raw string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%q is not a record id", raw)
	}
	return n, nil
}

func (k RelatedKind) Describe() string {
	if k.Model != "" {
		return "id of a " + k.Model
	}
	return "record id"
}

func (NestedKind) Name() string { return "nested" }

func (NestedKind) Parse(string) (any, error) {
	return nil, fmt.Errorf("set nested fields individually with dotted keys")
}

func (NestedKind) Describe() string { return "group of fields" }

func (FileKind) Name() string { return "file" }

func (FileKind) Parse(string) (any, error) {
	return nil, fmt.Errorf("file uploads are not supported from the command line")
}

func (FileKind) Describe() string { return "file upload (not supported)" }

func (k UnknownKind) Name() string {
	if k.Type == "" {
		return "unknown"
	}
	return k.Type
}

func (UnknownKind) Parse(raw string) (any, error) { return raw, nil }

func (UnknownKind) Describe() string { return "value" }
