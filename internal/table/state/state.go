// Package state is the mutable page, sort, filter and selection state of one grid.
package state

import (
	"fmt"
	"maps"
	"net/url"

	"github.com/inventree/invctl/internal/table/fetch"
	"github.com/inventree/invctl/internal/table/query"
	"github.com/inventree/invctl/internal/table/record"
)

// Status is the fetch status of a table.
type Status int

const (
	Idle Status = iota
	Loading
)

func (s Status) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// State is owned by a single grid and changed only through its setters.
type State struct {
	tableKey string
	page     int
	pageSize int
	sort     *query.Sort
	filters  map[string]string
	search   string

	records   []record.Record
	count     int
	message   string
	status    Status
	selection map[string]bool

	generation uint64
	dirty      bool

	// PreserveSelection keeps selected records that are still loaded after a refetch.
	PreserveSelection bool
}

func New(tableKey string, pageSize int) *State {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &State{
		tableKey:  tableKey,
		page:      1,
		pageSize:  pageSize,
		filters:   map[string]string{},
		selection: map[string]bool{},
		dirty:     true,
	}
}

func (s *State) TableKey() string         { return s.tableKey }
func (s *State) Page() int                { return s.page }
func (s *State) PageSize() int            { return s.pageSize }
func (s *State) Search() string           { return s.search }
func (s *State) Records() []record.Record { return s.records }
func (s *State) Count() int               { return s.count }
func (s *State) Message() string          { return s.message }
func (s *State) Status() Status           { return s.status }
func (s *State) Loading() bool            { return s.status == Loading }
func (s *State) Generation() uint64       { return s.generation }

// NeedsFetch reports whether a fetch input changed since the last BeginFetch.
func (s *State) NeedsFetch() bool { return s.dirty }

// Invalidate forces the next NeedsFetch to report true.
func (s *State) Invalidate() { s.dirty = true }

// Sort returns the active sort, or nil.
func (s *State) Sort() *query.Sort {
	if s.sort == nil {
		return nil
	}
	cp := *s.sort
	return &cp
}

// Filters returns a copy of the active filters.
func (s *State) Filters() map[string]string {
	return maps.Clone(s.filters)
}

// PageCount is the number of pages for the current record count, at least 1.
func (s *State) PageCount() int {
	if s.count <= 0 {
		return 1
	}
	return (s.count + s.pageSize - 1) / s.pageSize
}

// SetTableKey switches the table and resets paging. It returns the previous key.
func (s *State) SetTableKey(key string) string {
	prev := s.tableKey
	if key != prev {
		s.tableKey = key
		s.page = 1
		s.dirty = true
	}
	return prev
}

func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if page != s.page {
		s.page = page
		s.dirty = true
	}
}

func (s *State) NextPage() {
	if s.page < s.PageCount() {
		s.SetPage(s.page + 1)
	}
}

func (s *State) PrevPage() {
	s.SetPage(s.page - 1)
}

func (s *State) SetPageSize(size int) {
	if size > 0 && size != s.pageSize {
		s.pageSize = size
		s.page = 1
		s.dirty = true
	}
}

// SetSort sets the sort column. A nil sort clears ordering.
func (s *State) SetSort(sort *query.Sort) {
	if sort == nil && s.sort == nil {
		return
	}
	if sort != nil && s.sort != nil && *sort == *s.sort {
		return
	}
	if sort == nil {
		s.sort = nil
	} else {
		cp := *sort
		s.sort = &cp
	}
	s.dirty = true
}

// CycleSort moves a column through ascending, descending and unsorted.
func (s *State) CycleSort(sort query.Sort) {
	switch {
	case s.sort == nil || s.sort.Accessor != sort.Accessor:
		sort.Descending = false
		s.SetSort(&sort)
	case !s.sort.Descending:
		sort.Descending = true
		s.SetSort(&sort)
	default:
		s.SetSort(nil)
	}
}

// SetFilter sets a filter value and returns to the first page.
func (s *State) SetFilter(name, value string) {
	if cur, ok := s.filters[name]; ok && cur == value {
		return
	}
	s.filters[name] = value
	s.page = 1
	s.dirty = true
}

func (s *State) RemoveFilter(name string) {
	if _, ok := s.filters[name]; !ok {
		return
	}
	delete(s.filters, name)
	s.page = 1
	s.dirty = true
}

func (s *State) ClearFilters() {
	if len(s.filters) == 0 {
		return
	}
	s.filters = map[string]string{}
	s.page = 1
	s.dirty = true
}

// SetSearch sets the search term and returns to the first page.
func (s *State) SetSearch(term string) {
	if term == s.search {
		return
	}
	s.search = term
	s.page = 1
	s.dirty = true
}

// Query builds the list query for the current state.
func (s *State) Query(base url.Values, paginate bool) query.Builder {
	return query.Builder{
		Base:     base,
		Filters:  s.Filters(),
		Search:   s.search,
		Sort:     s.Sort(),
		Paginate: paginate,
		PageSize: s.pageSize,
		Page:     s.page,
	}
}

// BeginFetch enters the loading state and returns the generation of the new request.
func (s *State) BeginFetch() uint64 {
	s.generation++
	s.status = Loading
	s.dirty = false
	return s.generation
}

// Apply stores a fetch result. Results from any request but the latest one are
// discarded and Apply returns false.
func (s *State) Apply(res fetch.Result) bool {
	if res.Generation != s.generation {
		return false
	}

	s.records = res.Records
	s.count = res.Count
	s.message = res.Message
	s.status = Idle

	if !s.PreserveSelection {
		s.selection = map[string]bool{}
		return true
	}

	loaded := make(map[string]bool, len(s.records))
	for _, r := range s.records {
		loaded[r.PK()] = true
	}
	for pk := range s.selection {
		if !loaded[pk] {
			delete(s.selection, pk)
		}
	}
	return true
}

func (s *State) find(pk string) (record.Record, bool) {
	for _, r := range s.records {
		if r.PK() == pk {
			return r, true
		}
	}
	return record.Record{}, false
}

// Select adds a loaded record to the selection.
func (s *State) Select(pk string) error {
	if _, ok := s.find(pk); !ok {
		return fmt.Errorf("record %s is not loaded", pk)
	}
	s.selection[pk] = true
	return nil
}

func (s *State) Deselect(pk string) {
	delete(s.selection, pk)
}

// ToggleSelect flips selection of a loaded record.
func (s *State) ToggleSelect(pk string) error {
	if s.selection[pk] {
		s.Deselect(pk)
		return nil
	}
	return s.Select(pk)
}

func (s *State) SelectAll() {
	for _, r := range s.records {
		s.selection[r.PK()] = true
	}
}

func (s *State) ClearSelection() {
	s.selection = map[string]bool{}
}

func (s *State) IsSelected(pk string) bool {
	return s.selection[pk]
}

// Selected returns the selected records in load order.
func (s *State) Selected() []record.Record {
	rv := []record.Record{}
	for _, r := range s.records {
		if s.selection[r.PK()] {
			rv = append(rv, r)
		}
	}
	return rv
}

// SelectedPKs returns the primary keys of the selected records in load order.
func (s *State) SelectedPKs() []any {
	sel := s.Selected()
	rv := make([]any, 0, len(sel))
	for _, r := range sel {
		rv = append(rv, r.PKValue())
	}
	return rv
}
