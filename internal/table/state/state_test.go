package state

import (
	"testing"

	"github.com/inventree/invctl/internal/table/fetch"
	"github.com/inventree/invctl/internal/table/query"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/stretchr/testify/require"
)

func rows(pks ...int) []record.Record {
	rv := make([]record.Record, 0, len(pks))
	for _, pk := range pks {
		rv = append(rv, record.New(map[string]any{"pk": pk}))
	}
	return rv
}

func load(s *State, pks ...int) {
	gen := s.BeginFetch()
	s.Apply(fetch.Result{Records: rows(pks...), Count: len(pks), Generation: gen})
}

func TestFetchLifecycle(t *testing.T) {
	s := New("part", 10)
	require.True(t, s.NeedsFetch())
	require.Equal(t, Idle, s.Status())

	gen := s.BeginFetch()
	require.True(t, s.Loading())
	require.False(t, s.NeedsFetch())

	require.True(t, s.Apply(fetch.Result{Records: rows(1, 2), Count: 42, Generation: gen}))
	require.Equal(t, Idle, s.Status())
	require.Equal(t, 5, s.PageCount())
}

func TestFailedFetchReturnsToIdle(t *testing.T) {
	s := New("part", 10)
	load(s, 1, 2)

	gen := s.BeginFetch()
	s.Apply(fetch.Result{Message: fetch.MsgForbidden, Generation: gen})
	require.Equal(t, Idle, s.Status())
	require.Empty(t, s.Records())
	require.Equal(t, "Forbidden", s.Message())
}

func TestLastRequestWins(t *testing.T) {
	s := New("part", 10)

	first := s.BeginFetch()
	second := s.BeginFetch()

	require.True(t, s.Apply(fetch.Result{Records: rows(2), Count: 1, Generation: second}))
	require.False(t, s.Apply(fetch.Result{Records: rows(1), Count: 1, Generation: first}))

	require.Equal(t, "2", s.Records()[0].PK())
}

func TestInputsMarkDirtyAndResetPage(t *testing.T) {
	s := New("part", 10)
	load(s, 1)

	s.SetPage(3)
	require.True(t, s.NeedsFetch())
	s.BeginFetch()

	s.SetSearch("led")
	require.True(t, s.NeedsFetch())
	require.Equal(t, 1, s.Page())
	s.BeginFetch()

	s.SetSearch("led")
	require.False(t, s.NeedsFetch(), "unchanged input does not refetch")

	s.SetFilter("active", "true")
	require.True(t, s.NeedsFetch())
	s.BeginFetch()

	s.CycleSort(query.Sort{Accessor: "name"})
	require.True(t, s.NeedsFetch())
	require.Equal(t, "name", s.Sort().Param())
	s.CycleSort(query.Sort{Accessor: "name"})
	require.Equal(t, "-name", s.Sort().Param())
	s.CycleSort(query.Sort{Accessor: "name"})
	require.Nil(t, s.Sort())

	s.BeginFetch()
	prev := s.SetTableKey("stock")
	require.Equal(t, "part", prev)
	require.True(t, s.NeedsFetch())
}

func TestSelectionSubsetOfLoaded(t *testing.T) {
	s := New("part", 10)
	load(s, 7, 12, 15)

	require.NoError(t, s.Select("7"))
	require.NoError(t, s.ToggleSelect("12"))
	require.Error(t, s.Select("99"))
	require.Equal(t, []any{int64(7), int64(12)}, s.SelectedPKs())

	load(s, 7, 12)
	require.Empty(t, s.Selected(), "selection is cleared on refetch")
}

func TestPreserveSelectionIntersects(t *testing.T) {
	s := New("part", 10)
	s.PreserveSelection = true
	load(s, 7, 12, 15)
	s.SelectAll()

	load(s, 12, 15, 20)
	require.Equal(t, []any{int64(12), int64(15)}, s.SelectedPKs())
	require.False(t, s.IsSelected("7"))
}

func TestQueryFromState(t *testing.T) {
	s := New("part", 25)
	s.SetFilter("category", "3")
	s.SetSearch("res")
	s.SetPage(2)
	s.SetSort(&query.Sort{Accessor: "name", Descending: true})

	q := s.Query(nil, true).Build()
	require.Equal(t, "25", q.Get("offset"))
	require.Equal(t, "-name", q.Get("ordering"))
	require.Equal(t, "res", q.Get("search"))
	require.Equal(t, "3", q.Get("category"))

	q = s.Query(nil, false).Build()
	require.Empty(t, q.Get("limit"))
}

func TestPageNavigationBounds(t *testing.T) {
	s := New("part", 10)
	gen := s.BeginFetch()
	s.Apply(fetch.Result{Records: rows(1), Count: 15, Generation: gen})

	s.PrevPage()
	require.Equal(t, 1, s.Page())
	s.NextPage()
	require.Equal(t, 2, s.Page())
	s.NextPage()
	require.Equal(t, 2, s.Page())
}
