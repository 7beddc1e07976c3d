// Package columns holds the column and filter descriptors of a table and the
// rules for composing and hiding them.
package columns

import (
	"fmt"
	"strings"

	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/table/query"
	"github.com/inventree/invctl/internal/table/record"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ActionsAccessor identifies the trailing row actions column.
const ActionsAccessor = "__actions"

// RenderFunc renders the cell of a record.
type RenderFunc func(rec record.Record) string

// Column describes one grid column.
type Column struct {
	Accessor   string
	Title      string
	Sortable   bool
	Switchable bool
	Hidden     bool
	Render     RenderFunc
	// Ordering overrides Accessor as the ordering parameter.
	Ordering string
}

// Cell renders the column value of rec.
func (c Column) Cell(rec record.Record) string {
	if c.Render != nil {
		return c.Render(rec)
	}
	return rec.Display(c.Accessor)
}

// Sort returns the query sort for this column.
func (c Column) Sort(descending bool) query.Sort {
	return query.Sort{Accessor: c.Accessor, OrderingKey: c.Ordering, Descending: descending}
}

// IsActions reports whether c is the trailing actions column.
func (c Column) IsActions() bool {
	return c.Accessor == ActionsAccessor
}

var titleCaser = cases.Title(language.English)

// TitleFromAccessor turns in_stock or supplier.name into a readable title.
func TitleFromAccessor(accessor string) string {
	words := strings.NewReplacer("_", " ", ".", " ").Replace(accessor)
	return titleCaser.String(words)
}

// Compose fills empty titles from introspected labels and appends the actions
// column when the table has row actions.
func Compose(cols []Column, labels metadata.Labels, rowActions bool) []Column {
	rv := make([]Column, 0, len(cols)+1)
	for _, c := range cols {
		if c.Title == "" {
			if label, ok := labels[c.Accessor]; ok && label != "" {
				c.Title = label
			} else {
				c.Title = TitleFromAccessor(c.Accessor)
			}
		}
		rv = append(rv, c)
	}
	if rowActions {
		rv = append(rv, Column{Accessor: ActionsAccessor})
	}
	return rv
}

// Find returns the column with accessor.
func Find(cols []Column, accessor string) (Column, bool) {
	for _, c := range cols {
		if c.Accessor == accessor {
			return c, true
		}
	}
	return Column{}, false
}

// Visible returns the columns that are not hidden.
func Visible(cols []Column) []Column {
	rv := make([]Column, 0, len(cols))
	for _, c := range cols {
		if !c.Hidden {
			rv = append(rv, c)
		}
	}
	return rv
}

// ApplyHidden marks the named switchable columns as hidden and all other
// switchable columns as shown. Columns that are not switchable keep their state.
func ApplyHidden(cols []Column, hidden []string) []Column {
	set := make(map[string]bool, len(hidden))
	for _, h := range hidden {
		set[h] = true
	}
	rv := make([]Column, len(cols))
	for i, c := range cols {
		if c.Switchable {
			c.Hidden = set[c.Accessor]
		}
		rv[i] = c
	}
	return rv
}

// Toggle flips the visibility of a switchable column.
func Toggle(cols []Column, accessor string) ([]Column, error) {
	rv := make([]Column, len(cols))
	copy(rv, cols)
	for i, c := range rv {
		if c.Accessor != accessor {
			continue
		}
		if !c.Switchable {
			return cols, fmt.Errorf("column %q cannot be hidden", accessor)
		}
		rv[i].Hidden = !c.Hidden
		return rv, nil
	}
	return cols, fmt.Errorf("unknown column %q", accessor)
}

// HiddenAccessors lists the hidden switchable columns.
func HiddenAccessors(cols []Column) []string {
	rv := []string{}
	for _, c := range cols {
		if c.Switchable && c.Hidden {
			rv = append(rv, c.Accessor)
		}
	}
	return rv
}
