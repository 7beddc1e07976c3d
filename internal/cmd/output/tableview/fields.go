package tableview

import (
	"encoding/json"
	"fmt"

	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/util"
)

// FieldRows flattens values into path, label and value rows sorted by path.
// Nested objects contribute their leaves under dotted paths.
func FieldRows(values map[string]any, labels metadata.Labels) [][]string {
	flat := map[string]string{}
	flatten(flat, "", values)

	rows := make([][]string, 0, len(flat))
	for _, path := range util.SortedKeys(flat) {
		rows = append(rows, []string{path, labels[path], flat[path]})
	}
	return rows
}

func flatten(dst map[string]string, prefix string, values map[string]any) {
	for k, v := range values {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			if len(t) > 0 {
				flatten(dst, path, t)
				continue
			}
			dst[path] = "{}"
		case []any:
			data, _ := json.Marshal(t)
			dst[path] = string(data)
		case nil:
			dst[path] = ""
		case string:
			dst[path] = t
		default:
			data, err := json.Marshal(t)
			if err != nil {
				dst[path] = fmt.Sprint(t)
				continue
			}
			dst[path] = string(data)
		}
	}
}
