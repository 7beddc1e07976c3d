package columns

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inventree/invctl/internal/table/record"
)

// FilterType is the value type of a filter.
type FilterType string

const (
	FilterBoolean FilterType = "boolean"
	FilterChoice  FilterType = "choice"
	FilterText    FilterType = "text"
	FilterDate    FilterType = "date"
)

// Choice is one selectable value of a choice filter.
type Choice struct {
	Value string
	Label string
}

// Filter describes a user selectable query constraint.
type Filter struct {
	Name        string
	Label       string
	Description string
	Type        FilterType
	Choices     []Choice
}

// Normalize validates a raw filter value and returns the query parameter value.
func (f Filter) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch f.Type {
	case FilterBoolean:
		switch strings.ToLower(raw) {
		case "yes", "y", "on":
			return "true", nil
		case "no", "n", "off":
			return "false", nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", fmt.Errorf("filter %s expects true or false, got %q", f.Name, raw)
		}
		return strconv.FormatBool(b), nil
	case FilterChoice:
		for _, c := range f.Choices {
			if strings.EqualFold(c.Value, raw) || strings.EqualFold(c.Label, raw) {
				return c.Value, nil
			}
		}
		return "", fmt.Errorf("filter %s expects one of %s, got %q", f.Name, f.choiceList(), raw)
	case FilterDate:
		if _, err := time.Parse(record.DateLayout, raw); err != nil {
			return "", fmt.Errorf("filter %s expects a date (YYYY-MM-DD), got %q", f.Name, raw)
		}
		return raw, nil
	case FilterText, "":
		return raw, nil
	}
	return "", fmt.Errorf("filter %s has unknown type %q", f.Name, f.Type)
}

func (f Filter) choiceList() string {
	values := make([]string, 0, len(f.Choices))
	for _, c := range f.Choices {
		values = append(values, c.Value)
	}
	return strings.Join(values, ", ")
}

// FindFilter returns the filter with name.
func FindFilter(filters []Filter, name string) (Filter, bool) {
	for _, f := range filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// ResolveFilters validates name=value pairs against the declared filters.
// Undeclared names are passed through as text filters.
func ResolveFilters(filters []Filter, values map[string]string) (map[string]string, error) {
	rv := make(map[string]string, len(values))
	for name, raw := range values {
		f, ok := FindFilter(filters, name)
		if !ok {
			f = Filter{Name: name, Type: FilterText}
		}
		v, err := f.Normalize(raw)
		if err != nil {
			return nil, err
		}
		rv[name] = v
	}
	return rv, nil
}
