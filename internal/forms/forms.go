// Package forms builds create forms from server field definitions.
package forms

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inventree/invctl/internal/table/metadata"
)

// Field is a settable form field.
type Field struct {
	metadata.Field
	Kind Kind
}

// Form is the set of writable fields of an endpoint.
type Form struct {
	Fields []Field
}

// Build derives a form from field definitions. Read only fields are skipped and
// nested groups contribute their children under dotted names.
func Build(defs []metadata.Field) Form {
	var f Form
	f.add(defs)
	return f
}

func (f *Form) add(defs []metadata.Field) {
	for _, d := range defs {
		if d.ReadOnly {
			continue
		}
		if len(d.Children) > 0 {
			f.add(d.Children)
			continue
		}
		f.Fields = append(f.Fields, Field{Field: d, Kind: KindOf(d)})
	}
}

// Lookup returns a field by its dotted name.
func (f Form) Lookup(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Required lists the required fields without a server default.
func (f Form) Required() []Field {
	var rv []Field
	for _, field := range f.Fields {
		if field.Required && field.Default == nil {
			rv = append(rv, field)
		}
	}
	return rv
}

// Payload parses name=value input into the request body. Dotted names become
// nested objects.
func (f Form) Payload(values map[string]string) (map[string]any, error) {
	payload := map[string]any{}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		field, ok := f.Lookup(name)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown or read only field", name))
			continue
		}
		v, err := field.Kind.Parse(values[name])
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		setPath(payload, name, v)
	}

	for _, field := range f.Required() {
		if _, ok := values[field.Name]; !ok {
			problems = append(problems, fmt.Sprintf("%s: required", field.Name))
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid input:\n  %s", strings.Join(problems, "\n  "))
	}
	return payload, nil
}

func setPath(dst map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	cur := dst
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

// Describe writes one prompt line per field.
func (f Form) Describe(w io.Writer) error {
	for _, field := range f.Fields {
		marker := " "
		if field.Required {
			marker = "*"
		}
		label := field.Label
		if label == "" {
			label = field.Name
		}
		line := fmt.Sprintf("%s %-24s %-20s %s", marker, field.Name, label, field.Kind.Describe())
		if field.Default != nil {
			line += fmt.Sprintf(" [default: %v]", field.Default)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}
