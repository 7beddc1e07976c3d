package columns

import (
	"path/filepath"
	"testing"

	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func partColumns() []Column {
	return []Column{
		{Accessor: "name", Sortable: true},
		{Accessor: "IPN", Title: "Internal", Switchable: true},
		{Accessor: "in_stock", Sortable: true, Switchable: true},
		{Accessor: "category_detail.name", Sortable: true, Ordering: "category"},
	}
}

func TestComposeFillsTitles(t *testing.T) {
	cols := Compose(partColumns(), metadata.Labels{"name": "Name", "IPN": "IPN"}, true)
	require.Len(t, cols, 5)

	require.Equal(t, "Name", cols[0].Title)
	require.Equal(t, "Internal", cols[1].Title, "caller titles win")
	require.Equal(t, "In Stock", cols[2].Title)
	require.Equal(t, "Category Detail Name", cols[3].Title)
	require.True(t, cols[4].IsActions())

	require.Len(t, Compose(partColumns(), nil, false), 4)
}

func TestSortUsesOrderingOverride(t *testing.T) {
	c, ok := Find(partColumns(), "category_detail.name")
	require.True(t, ok)
	require.Equal(t, "-category", c.Sort(true).Param())
	require.Equal(t, "name", partColumns()[0].Sort(false).Param())
}

func TestCellRender(t *testing.T) {
	rec := record.New(map[string]any{"pk": 1, "name": "LED", "category_detail": map[string]any{"name": "Optics"}})
	cols := partColumns()
	require.Equal(t, "LED", cols[0].Cell(rec))
	require.Equal(t, "Optics", cols[3].Cell(rec))

	custom := Column{Accessor: "name", Render: func(r record.Record) string { return "<" + r.Display("name") + ">" }}
	require.Equal(t, "<LED>", custom.Cell(rec))
}

func TestVisibility(t *testing.T) {
	cols := ApplyHidden(partColumns(), []string{"IPN", "name"})
	require.True(t, cols[1].Hidden)
	require.False(t, cols[0].Hidden, "non switchable columns cannot be hidden")
	require.Len(t, Visible(cols), 3)
	require.Equal(t, []string{"IPN"}, HiddenAccessors(cols))

	cols, err := Toggle(cols, "IPN")
	require.NoError(t, err)
	require.False(t, cols[1].Hidden)

	_, err = Toggle(cols, "name")
	require.Error(t, err)
	_, err = Toggle(cols, "nope")
	require.Error(t, err)
}

func TestHiddenPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	v := viper.New()
	v.SetConfigFile(path)
	cfg := config.BuildProfiledConfig("default", path, v)

	cols := ApplyHidden(partColumns(), []string{"in_stock"})
	require.NoError(t, SaveHidden(cfg, "part-list", cols))
	hidden, ok := LoadHidden(cfg, "part-list")
	require.True(t, ok)
	require.Equal(t, []string{"in_stock"}, hidden)
	require.FileExists(t, path)

	hidden, ok = LoadHidden(cfg, "stock-list")
	require.False(t, ok)
	require.Empty(t, hidden)
}

func TestHiddenPersistenceEmptySetIsSaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	v := viper.New()
	v.SetConfigFile(path)
	cfg := config.BuildProfiledConfig("default", path, v)

	require.NoError(t, SaveHidden(cfg, "part-list", partColumns()))
	hidden, ok := LoadHidden(cfg, "part-list")
	require.True(t, ok, "an empty saved set still overrides declared defaults")
	require.Empty(t, hidden)
}

func TestFilterNormalize(t *testing.T) {
	active := Filter{Name: "active", Type: FilterBoolean}
	v, err := active.Normalize("yes")
	require.NoError(t, err)
	require.Equal(t, "true", v)
	_, err = active.Normalize("maybe")
	require.Error(t, err)

	units := Filter{Name: "units", Type: FilterChoice, Choices: []Choice{{Value: "pcs", Label: "Pieces"}}}
	v, err = units.Normalize("pieces")
	require.NoError(t, err)
	require.Equal(t, "pcs", v)
	_, err = units.Normalize("kg")
	require.ErrorContains(t, err, "pcs")

	date := Filter{Name: "min_date", Type: FilterDate}
	_, err = date.Normalize("2024-13-40")
	require.Error(t, err)

	resolved, err := ResolveFilters([]Filter{active}, map[string]string{"active": "1", "category": "3"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"active": "true", "category": "3"}, resolved)
}
