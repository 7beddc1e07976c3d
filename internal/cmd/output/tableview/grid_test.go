package tableview

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/models"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/columns"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/test/fakeapi"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

type openerSpy struct{ urls []string }

func (o *openerSpy) Open(u string) error {
	o.urls = append(o.urls, u)
	return nil
}

type gridHarness struct {
	srv    *fakeapi.Server
	grid   *table.Table
	model  *Model
	opener *openerSpy
	copied []string
}

func newGridHarness(t *testing.T) *gridHarness {
	t.Helper()
	h := &gridHarness{srv: fakeapi.New(), opener: &openerSpy{}}
	t.Cleanup(h.srv.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	v := viper.New()
	v.SetConfigFile(path)

	notify, notices := NewNotifier()
	h.grid = table.New(table.Definition{
		Name:     "parts",
		TableKey: "part-index",
		Endpoint: "/api/part/",
		Model:    models.Part,
		Columns: []columns.Column{
			{Accessor: "pk", Title: "ID"},
			{Accessor: "name", Title: "Name", Sortable: true},
			{Accessor: "IPN", Title: "IPN", Switchable: true},
		},
		Filters:    []columns.Filter{{Name: "active", Type: columns.FilterBoolean}},
		Schema:     record.Schema{Columns: []record.Column{{Name: "pk", Kind: record.KindInt, Required: true}}},
		RowActions: true,
	}, table.Deps{
		BaseURL:  h.srv.URL,
		Client:   h.srv.Client(),
		Config:   config.BuildProfiledConfig("default", path, v),
		Opener:   h.opener,
		Notify:   notify,
		PageSize: 25,
	})
	h.model = NewModel(context.Background(), h.grid, notices)
	h.model.copy = func(s string) error {
		h.copied = append(h.copied, s)
		return nil
	}
	h.run(h.model.fetch())
	return h
}

// run executes cmd and feeds its message back into the model, following one
// level of commands. Batches and ticks are ignored.
func (h *gridHarness) run(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg.(type) {
	case fetchedMsg, deletedMsg, noticeMsg:
		_, next := h.model.Update(msg)
		return next
	}
	return nil
}

func (h *gridHarness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = h.model.Update(msg)
	}
	return cmd
}

func TestGridLoadsFirstPage(t *testing.T) {
	h := newGridHarness(t)

	require.Len(t, h.grid.State().Records(), 5)
	require.Len(t, h.model.tbl.Rows(), 5)
	require.Contains(t, h.model.View(), "Resistor 10k")
	require.Contains(t, h.model.View(), "5 records")
}

func TestGridStaleResultIsDiscarded(t *testing.T) {
	h := newGridHarness(t)

	stale := h.model.fetch()
	fresh := h.model.fetch()
	h.run(fresh)
	h.run(stale)

	require.Equal(t, uint64(3), h.grid.State().Generation())
	require.False(t, h.grid.State().Loading())
}

func TestGridSortCyclesSelectedColumn(t *testing.T) {
	h := newGridHarness(t)

	h.press("l")
	h.run(h.press("s"))
	sort := h.grid.State().Sort()
	require.NotNil(t, sort)
	require.Equal(t, "name", sort.Accessor)
	require.False(t, sort.Descending)

	lists := h.srv.Requests("GET")
	require.Equal(t, "name", lists[len(lists)-1].Query.Get("ordering"))

	h.run(h.press("s"))
	require.True(t, h.grid.State().Sort().Descending)
	h.run(h.press("s"))
	require.Nil(t, h.grid.State().Sort())
}

func TestGridSearchInput(t *testing.T) {
	h := newGridHarness(t)

	h.press("/", "R", "e", "s")
	h.run(h.press("enter"))

	require.Equal(t, "Res", h.grid.State().Search())
	require.Len(t, h.grid.State().Records(), 2)
}

func TestGridFilterInput(t *testing.T) {
	h := newGridHarness(t)

	h.press("f")
	for _, r := range "active=yes" {
		h.press(string(r))
	}
	h.run(h.press("enter"))
	require.Equal(t, map[string]string{"active": "true"}, h.grid.State().Filters())

	h.press("f", "a", "c", "t", "i", "v", "e", "=")
	h.run(h.press("enter"))
	require.Empty(t, h.grid.State().Filters())
}

func TestGridDeleteNeedsTwoConfirmations(t *testing.T) {
	h := newGridHarness(t)

	h.press("space")
	require.Len(t, h.grid.State().Selected(), 1)

	h.press("d")
	require.Equal(t, modeConfirmDelete, h.model.mode)
	require.Nil(t, h.press("y"))
	require.Equal(t, modeConfirmDeleteFinal, h.model.mode)
	require.Empty(t, h.srv.Requests("DELETE"))

	refetch := h.run(h.press("y"))
	deletes := h.srv.Requests("DELETE")
	require.Len(t, deletes, 1)
	require.JSONEq(t, `{"items":[1]}`, deletes[0].Body)

	before := len(h.srv.Requests("GET"))
	h.run(refetch)
	require.Len(t, h.srv.Requests("GET"), before+1)
	require.Len(t, h.grid.State().Records(), 4)
}

func TestGridDeleteCancelled(t *testing.T) {
	h := newGridHarness(t)

	h.press("space", "d", "n")
	require.Equal(t, modeBrowse, h.model.mode)
	require.Empty(t, h.srv.Requests("DELETE"))
}

func TestGridDeleteWithoutSelection(t *testing.T) {
	h := newGridHarness(t)

	h.press("d")
	require.Equal(t, modeBrowse, h.model.mode)
	require.NotNil(t, h.model.notice)
}

func TestGridExportOpensURL(t *testing.T) {
	h := newGridHarness(t)

	h.press("e", "c")
	require.Len(t, h.opener.urls, 1)
	require.Contains(t, h.opener.urls[0], "export=csv")
	require.NotContains(t, h.opener.urls[0], "limit=")
}

func TestGridOpenAndCopy(t *testing.T) {
	h := newGridHarness(t)

	h.press("enter")
	require.Equal(t, []string{h.srv.URL + "/web/part/1/"}, h.opener.urls)

	h.press("u")
	require.Equal(t, []string{h.srv.URL + "/web/part/1/"}, h.copied)
}

func TestGridToggleColumn(t *testing.T) {
	h := newGridHarness(t)

	h.press("c", "space", "esc")
	for _, col := range h.grid.VisibleColumns() {
		require.NotEqual(t, "IPN", col.Accessor)
	}
}

func TestMatrixMarksSelection(t *testing.T) {
	h := newGridHarness(t)
	require.NoError(t, h.grid.State().Select("2"))

	headers, rows := Matrix(h.grid, true)
	require.Equal(t, []string{" ", "ID", "Name", "IPN", ""}, headers)
	require.Equal(t, "", rows[0][0])
	require.Equal(t, selectedMark, rows[1][0])
	require.Equal(t, actionsMark, rows[1][4])
}
