package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func partSchema() Schema {
	return Schema{Columns: []Column{
		{Name: "pk", Kind: KindInt, Required: true},
		{Name: "name", Kind: KindString},
		{Name: "in_stock", Kind: KindFloat},
		{Name: "active", Kind: KindBool},
		{Name: "creation_date", Kind: KindDate},
	}}
}

func TestValidateCoercesDeclaredColumns(t *testing.T) {
	rec, err := partSchema().Validate(map[string]any{
		"pk":            float64(7),
		"name":          "Resistor",
		"in_stock":      "12.5",
		"active":        "true",
		"creation_date": "2024-03-01",
		"extra":         []any{"kept"},
	})
	require.NoError(t, err)

	require.Equal(t, "7", rec.PK())
	require.Equal(t, int64(7), rec.PKValue())

	v, ok := rec.Get("pk")
	require.True(t, ok)
	require.Equal(t, int64(7), v)

	v, _ = rec.Get("in_stock")
	require.Equal(t, 12.5, v)

	v, _ = rec.Get("active")
	require.Equal(t, true, v)

	v, _ = rec.Get("creation_date")
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), v)
	require.Equal(t, "2024-03-01", rec.Display("creation_date"))

	require.Equal(t, `["kept"]`, rec.Display("extra"))
}

func TestValidateRejects(t *testing.T) {
	s := partSchema()

	_, err := s.Validate("not an object")
	require.Error(t, err)

	_, err = s.Validate(map[string]any{"name": "no pk"})
	require.ErrorContains(t, err, "missing required field")

	_, err = s.Validate(map[string]any{"pk": 1.5})
	require.ErrorContains(t, err, "expected integer")

	_, err = s.Validate(map[string]any{"pk": 1, "active": "maybe"})
	require.ErrorContains(t, err, "expected boolean")
}

func TestNullOptionalColumnsAllowed(t *testing.T) {
	rec, err := partSchema().Validate(map[string]any{"pk": 1, "in_stock": nil})
	require.NoError(t, err)
	require.Equal(t, "", rec.Display("in_stock"))
}

func TestDottedPaths(t *testing.T) {
	rec := New(map[string]any{
		"pk":       "abc",
		"supplier": map[string]any{"name": "Mouser"},
	})
	require.Equal(t, "Mouser", rec.Display("supplier.name"))
	require.Equal(t, "abc", rec.PKValue())

	_, ok := rec.Get("supplier.url")
	require.False(t, ok)
}

func TestPKValueKeepsServerType(t *testing.T) {
	require.Equal(t, "0012", New(map[string]any{"pk": "0012"}).PKValue())
	require.Equal(t, "0012", New(map[string]any{"pk": "0012"}).PK())
	require.Equal(t, int64(12), New(map[string]any{"pk": float64(12)}).PKValue())
	require.Nil(t, New(map[string]any{"name": "no key"}).PKValue())

	rec, err := partSchema().Validate(map[string]any{"pk": "0012"})
	require.NoError(t, err)
	require.Equal(t, "0012", rec.PKValue(), "declared coercion does not rewrite the key")
	v, _ := rec.Get("pk")
	require.Equal(t, int64(12), v)
}

func TestKindFromString(t *testing.T) {
	k, err := KindFromString("Integer")
	require.NoError(t, err)
	require.Equal(t, KindInt, k)
	require.Equal(t, "int", k.String())

	_, err = KindFromString("blob")
	require.Error(t, err)
}
