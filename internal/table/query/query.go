// Package query merges table inputs into list request parameters.
package query

import (
	"fmt"
	"net/url"

	"github.com/ajg/form"
	"github.com/inventree/invctl/internal/util"
)

const (
	SearchKey   = "search"
	LimitKey    = "limit"
	OffsetKey   = "offset"
	OrderingKey = "ordering"
	ExportKey   = "export"
)

// Sort is the active sort column. OrderingKey overrides Accessor when set.
type Sort struct {
	Accessor    string
	OrderingKey string
	Descending  bool
}

// Param returns the value for the ordering parameter.
func (s Sort) Param() string {
	key := s.Accessor
	if s.OrderingKey != "" {
		key = s.OrderingKey
	}
	if s.Descending {
		return "-" + key
	}
	return key
}

// Builder collects everything that contributes to a list query.
type Builder struct {
	Base     url.Values
	Filters  map[string]string
	Search   string
	Sort     *Sort
	Paginate bool
	PageSize int
	// Page is 1-indexed.
	Page int
}

// Offset returns the record offset of a 1-indexed page.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// Build merges base params, filters, search, pagination and ordering, in that order.
func (b Builder) Build() url.Values {
	rv := url.Values{}
	for k, vs := range b.Base {
		rv[k] = append([]string(nil), vs...)
	}

	for _, k := range util.SortedKeys(b.Filters) {
		rv.Set(k, b.Filters[k])
	}

	if b.Search != "" {
		rv.Set(SearchKey, b.Search)
	}

	if b.Paginate {
		rv.Set(LimitKey, fmt.Sprint(b.PageSize))
		rv.Set(OffsetKey, fmt.Sprint(Offset(b.Page, b.PageSize)))
	}

	if b.Sort != nil && (b.Sort.Accessor != "" || b.Sort.OrderingKey != "") {
		rv.Set(OrderingKey, b.Sort.Param())
	}

	return rv
}

// Unpaginated returns the same query with limit and offset removed.
func Unpaginated(v url.Values) url.Values {
	rv := url.Values{}
	for k, vs := range v {
		if k == LimitKey || k == OffsetKey {
			continue
		}
		rv[k] = append([]string(nil), vs...)
	}
	return rv
}

// EncodeBase encodes a struct with form tags, or a map of names to values,
// into base params.
func EncodeBase(v any) (url.Values, error) {
	values, err := form.EncodeToValues(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode base params: %w", err)
	}
	return values, nil
}
