package session

import (
	"fmt"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/columns"
	"github.com/inventree/invctl/internal/util"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/spf13/pflag"
)

const (
	FilterFlagName = "filter"
	SearchFlagName = "search"
	SortFlagName   = "sort"
)

// Query is the command line form of a grid query.
type Query struct {
	Filters []string
	Search  string
	Sort    string
	// Page is ignored when zero.
	Page int
}

// AddFlags registers --filter, --search and --sort on flags.
func (q *Query) AddFlags(flags *pflag.FlagSet) {
	flags.StringArrayVar(&q.Filters, FilterFlagName, nil,
		i18n.T("session.query."+FilterFlagName, "Filter records by key=value. May be repeated."))
	flags.StringVar(&q.Search, SearchFlagName, "",
		i18n.T("session.query."+SearchFlagName, "Free text search term."))
	flags.StringVar(&q.Sort, SortFlagName, "",
		i18n.T("session.query."+SortFlagName, "Sort column accessor, prefix with '-' for descending order."))
}

// Validate checks the query without a grid.
func (q *Query) Validate() error {
	if _, err := util.ParseKeyValues(q.Filters); err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	return nil
}

// Apply sets the query on a fresh grid. Unknown filters, invalid filter values and
// unsortable columns are usage errors.
func (q *Query) Apply(grid *table.Table) error {
	filters, err := util.ParseKeyValues(q.Filters)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	for _, name := range util.SortedKeys(filters) {
		if err := grid.SetFilterValue(name, filters[name]); err != nil {
			return &cmd.ConfigurationError{Err: err}
		}
	}

	state := grid.State()
	state.SetSearch(strings.TrimSpace(q.Search))

	if q.Sort != "" {
		descending := strings.HasPrefix(q.Sort, "-")
		accessor := strings.TrimPrefix(q.Sort, "-")
		col, ok := columns.Find(grid.Columns(), accessor)
		if !ok || !col.Sortable {
			return &cmd.ConfigurationError{Err: fmt.Errorf("column %q of %s is not sortable", accessor, grid.Definition().Name)}
		}
		sort := col.Sort(descending)
		state.SetSort(&sort)
	}

	if q.Page > 0 {
		state.SetPage(q.Page)
	}
	return nil
}
