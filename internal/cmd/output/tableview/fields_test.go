package tableview

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/inventree/invctl/internal/table/metadata"
)

func TestFieldRows(t *testing.T) {
	rows := FieldRows(map[string]any{
		"pk":       float64(3),
		"name":     "Wire red",
		"tags":     []any{"a", "b"},
		"supplier": map[string]any{"name": "Acme"},
		"notes":    nil,
	}, metadata.Labels{"supplier.name": "Supplier Name"})

	want := [][]string{
		{"name", "", "Wire red"},
		{"notes", "", ""},
		{"pk", "", "3"},
		{"supplier.name", "Supplier Name", "Acme"},
		{"tags", "", `["a","b"]`},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("FieldRows mismatch (-want +got):\n%s", diff)
	}
}
