package forms

import (
	"bytes"
	"testing"

	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/stretchr/testify/require"
)

func partFields() []metadata.Field {
	return []metadata.Field{
		{Name: "pk", Type: "integer", Label: "ID", ReadOnly: true},
		{Name: "name", Type: "string", Label: "Name", Required: true, MaxLength: 10},
		{Name: "active", Type: "boolean", Label: "Active", Default: true},
		{Name: "minimum_stock", Type: "float", Label: "Minimum Stock"},
		{Name: "price", Type: "decimal", Label: "Price"},
		{Name: "category", Type: "related field", Label: "Category", Model: "partcategory", Required: true},
		{Name: "units", Type: "choice", Label: "Units", Choices: []metadata.Choice{
			{Value: "pcs", DisplayName: "Pieces"}, {Value: "m", DisplayName: "Metres"},
		}},
		{Name: "launch", Type: "date", Label: "Launch"},
		{Name: "image", Type: "image upload", Label: "Image"},
		{Name: "supplier", Type: "nested object", Label: "Supplier", Children: []metadata.Field{
			{Name: "supplier.name", Type: "string", Label: "Supplier Name"},
		}},
	}
}

func TestKindOfCoversServerTypes(t *testing.T) {
	cases := map[string]Kind{
		"string":        StringKind{},
		"integer":       IntegerKind{},
		"float":         FloatKind{},
		"decimal":       DecimalKind{},
		"boolean":       BooleanKind{},
		"choice":        ChoiceKind{},
		"date":          DateKind{},
		"datetime":      DateTimeKind{},
		"related field": RelatedKind{},
		"nested object": NestedKind{},
		"file upload":   FileKind{},
		"owner":         UnknownKind{Type: "owner"},
	}
	for typ, want := range cases {
		got := KindOf(metadata.Field{Type: typ})
		require.IsType(t, want, got, typ)
	}
}

func TestBuildSkipsReadOnlyAndFlattensNested(t *testing.T) {
	form := Build(partFields())
	_, ok := form.Lookup("pk")
	require.False(t, ok)

	f, ok := form.Lookup("supplier.name")
	require.True(t, ok)
	require.IsType(t, StringKind{}, f.Kind)

	required := form.Required()
	require.Len(t, required, 2)
}

func TestPayload(t *testing.T) {
	form := Build(partFields())
	payload, err := form.Payload(map[string]string{
		"name":          "LED",
		"category":      "6",
		"active":        "no",
		"minimum_stock": "2.5",
		"price":         "0.125",
		"units":         "Pieces",
		"launch":        "2025-01-31",
		"supplier.name": "Mouser",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"name":          "LED",
		"category":      int64(6),
		"active":        false,
		"minimum_stock": 2.5,
		"price":         "0.125",
		"units":         "pcs",
		"launch":        "2025-01-31",
		"supplier":      map[string]any{"name": "Mouser"},
	}, payload)
}

func TestPayloadReportsAllProblems(t *testing.T) {
	form := Build(partFields())
	_, err := form.Payload(map[string]string{
		"name":   "a name that is too long",
		"active": "perhaps",
		"pk":     "3",
		"image":  "x.png",
		"units":  "kg",
		"launch": "31/01/2025",
	})
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"name: at most 10 characters",
		"active:",
		"pk: unknown or read only field",
		"image: file uploads are not supported",
		"units:",
		"launch:",
		"category: required",
	} {
		require.Contains(t, msg, want)
	}
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(partFields()).Describe(&buf))
	out := buf.String()
	require.Contains(t, out, "* name")
	require.Contains(t, out, "text, up to 10 characters")
	require.Contains(t, out, "one of pcs, m")
	require.Contains(t, out, "[default: true]")
	require.Contains(t, out, "id of a partcategory")
}
