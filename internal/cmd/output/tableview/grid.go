package tableview

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/table/columns"
	"github.com/inventree/invctl/internal/table/fetch"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/internal/theme"
	"github.com/inventree/invctl/internal/util"
	"github.com/inventree/invctl/internal/util/i18n"
)

const (
	selectedMark   = "✓"
	actionsMark    = "⋯"
	sortAscending  = " ▲"
	sortDescending = " ▼"
	noticeBuffer   = 16
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeFilter
	modeColumns
	modeExport
	modeConfirmDelete
	modeConfirmDeleteFinal
)

type fetchedMsg struct {
	res fetch.Result
}

type deletedMsg struct {
	err error
}

type noticeMsg struct {
	notice table.Notice
}

// NewNotifier returns a table notifier that queues notices for the grid, and the
// queue the grid reads from. Notices are dropped when the queue is full.
func NewNotifier() (table.Notifier, chan table.Notice) {
	ch := make(chan table.Notice, noticeBuffer)
	return func(n table.Notice) {
		select {
		case ch <- n:
		default:
		}
	}, ch
}

// Model is the interactive grid over a table controller. Grid state is only
// touched from Update; network calls run as commands.
type Model struct {
	ctx     context.Context
	grid    *table.Table
	notices <-chan table.Notice

	tbl     btable.Model
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	palette theme.Palette
	styles  btable.Styles

	mode         mode
	column       int
	columnCursor int
	notice       *table.Notice
	width        int
	height       int
	copy         func(string) error
	quitting     bool
}

// NewModel builds the grid model. notices may be nil.
func NewModel(ctx context.Context, grid *table.Table, notices <-chan table.Notice) *Model {
	palette := theme.Current()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = palette.ForegroundStyle(theme.ColorAccent)

	input := textinput.New()
	input.CharLimit = 256

	styles := tableStyles(palette)
	keyMap := btable.DefaultKeyMap()
	keyMap.LineUp = key.NewBinding(key.WithKeys("up", "k"))
	keyMap.LineDown = key.NewBinding(key.WithKeys("down", "j"))
	keyMap.PageDown = key.NewBinding(key.WithKeys("ctrl+f"))
	keyMap.PageUp = key.NewBinding(key.WithKeys("ctrl+b"))
	keyMap.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"))
	keyMap.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))

	m := &Model{
		ctx:     ctx,
		grid:    grid,
		notices: notices,
		tbl: btable.New(
			btable.WithFocused(true),
			btable.WithStyles(styles),
			btable.WithKeyMap(keyMap),
		),
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		input:   input,
		palette: palette,
		styles:  styles,
		width:   defaultWidth,
		height:  defaultHeight,
		copy:    clipboard.WriteAll,
	}
	m.rebuild()
	return m
}

// Run starts the grid program on the given streams.
func Run(ctx context.Context, in io.Reader, out io.Writer, grid *table.Table, notices <-chan table.Notice) error {
	program := tea.NewProgram(NewModel(ctx, grid, notices),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(), m.waitNotice())
}

// fetch enters loading and returns the command that performs the request.
func (m *Model) fetch() tea.Cmd {
	req := m.grid.BeginFetch()
	ctx := m.ctx
	grid := m.grid
	return func() tea.Msg {
		return fetchedMsg{res: grid.Fetch(ctx, req)}
	}
}

func (m *Model) fetchIfNeeded() tea.Cmd {
	if !m.grid.State().NeedsFetch() {
		return nil
	}
	return m.fetch()
}

func (m *Model) waitNotice() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	ch := m.notices
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg{notice: n}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.rebuild()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case fetchedMsg:
		if m.grid.Apply(msg.res) {
			m.rebuild()
		}
		return m, nil
	case deletedMsg:
		if msg.err != nil {
			return m, nil
		}
		m.grid.State().ClearSelection()
		return m, m.fetch()
	case noticeMsg:
		n := msg.notice
		m.notice = &n
		return m, m.waitNotice()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) { //nolint:ireturn
	switch m.mode {
	case modeSearch, modeFilter:
		return m.handleInput(msg)
	case modeColumns:
		return m, m.handleColumns(msg)
	case modeExport:
		return m, m.handleExport(msg)
	case modeConfirmDelete, modeConfirmDeleteFinal:
		return m, m.handleConfirm(msg)
	case modeBrowse:
	}

	state := m.grid.State()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextPage):
		state.NextPage()
		return m, m.fetchIfNeeded()
	case key.Matches(msg, m.keys.PrevPage):
		state.PrevPage()
		return m, m.fetchIfNeeded()
	case key.Matches(msg, m.keys.NextColumn):
		m.column = min(m.column+1, max(len(m.grid.VisibleColumns())-1, 0))
		m.rebuild()
	case key.Matches(msg, m.keys.PrevColumn):
		m.column = max(m.column-1, 0)
		m.rebuild()
	case key.Matches(msg, m.keys.Sort):
		return m, m.cycleSort()
	case key.Matches(msg, m.keys.Search):
		m.startInput(modeSearch, i18n.T("tableview.search", "Search: "), state.Search())
	case key.Matches(msg, m.keys.Filter):
		m.startInput(modeFilter, i18n.T("tableview.filter", "Filter (name=value): "), "")
	case key.Matches(msg, m.keys.ClearAll):
		state.ClearFilters()
		state.SetSearch("")
		return m, m.fetchIfNeeded()
	case key.Matches(msg, m.keys.Select):
		if rec, ok := m.current(); ok {
			_ = state.ToggleSelect(rec.PK())
			m.rebuild()
		}
	case key.Matches(msg, m.keys.SelectAll):
		state.SelectAll()
		m.rebuild()
	case key.Matches(msg, m.keys.Deselect):
		state.ClearSelection()
		m.rebuild()
	case key.Matches(msg, m.keys.Columns):
		m.mode = modeColumns
		m.columnCursor = 0
	case key.Matches(msg, m.keys.Delete):
		if len(state.Selected()) == 0 {
			m.setNotice(table.NoticeWarning, i18n.T("tableview.delete.none", "Select rows to delete first"))
			return m, nil
		}
		m.mode = modeConfirmDelete
	case key.Matches(msg, m.keys.Export):
		m.mode = modeExport
	case key.Matches(msg, m.keys.Open):
		if rec, ok := m.current(); ok {
			if err := m.grid.Activate(rec); err != nil {
				m.setNotice(table.NoticeError, err.Error())
			}
		}
	case key.Matches(msg, m.keys.Edit):
		m.openDetail(actions.ModeEdit)
	case key.Matches(msg, m.keys.Duplicate):
		m.openDetail(actions.ModeDuplicate)
	case key.Matches(msg, m.keys.CopyURL):
		m.copyURL()
	case key.Matches(msg, m.keys.Refresh):
		state.Invalidate()
		return m, m.fetch()
	default:
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) startInput(next mode, prompt, value string) {
	m.mode = next
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) { //nolint:ireturn
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		current := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		if current == modeSearch {
			m.grid.State().SetSearch(value)
			return m, m.fetchIfNeeded()
		}
		return m, m.applyFilter(value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) applyFilter(expr string) tea.Cmd {
	if expr == "" {
		return nil
	}
	name, value, ok := strings.Cut(expr, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		m.setNotice(table.NoticeWarning, i18n.T("tableview.filter.invalid", "Use name=value, or name= to remove"))
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		m.grid.State().RemoveFilter(name)
		return m.fetchIfNeeded()
	}
	if err := m.grid.SetFilterValue(name, value); err != nil {
		m.setNotice(table.NoticeError, err.Error())
		return nil
	}
	return m.fetchIfNeeded()
}

func (m *Model) switchable() []columns.Column {
	var rv []columns.Column
	for _, col := range m.grid.Columns() {
		if col.Switchable {
			rv = append(rv, col)
		}
	}
	return rv
}

func (m *Model) handleColumns(msg tea.KeyMsg) tea.Cmd {
	cols := m.switchable()
	switch {
	case msg.Type == tea.KeyEsc, key.Matches(msg, m.keys.Columns), key.Matches(msg, m.keys.Quit):
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Up):
		m.columnCursor = max(m.columnCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.columnCursor = min(m.columnCursor+1, max(len(cols)-1, 0))
	case key.Matches(msg, m.keys.Select), msg.Type == tea.KeyEnter:
		if m.columnCursor < len(cols) {
			if err := m.grid.ToggleColumn(cols[m.columnCursor].Accessor); err != nil {
				m.setNotice(table.NoticeError, err.Error())
			}
			m.column = min(m.column, max(len(m.grid.VisibleColumns())-1, 0))
			m.rebuild()
		}
	}
	return nil
}

func (m *Model) handleExport(msg tea.KeyMsg) tea.Cmd {
	m.mode = modeBrowse
	var format actions.ExportFormat
	switch msg.String() {
	case "c":
		format = actions.ExportCSV
	case "t":
		format = actions.ExportTSV
	case "x":
		format = actions.ExportXLSX
	default:
		return nil
	}
	_, _ = m.grid.Export(format)
	return nil
}

// handleConfirm runs the two step delete confirmation. Anything but y cancels.
func (m *Model) handleConfirm(msg tea.KeyMsg) tea.Cmd {
	if msg.String() != "y" {
		m.mode = modeBrowse
		m.setNotice(table.NoticeInfo, i18n.T("tableview.delete.cancelled", "Delete cancelled"))
		return nil
	}
	if m.mode == modeConfirmDelete {
		m.mode = modeConfirmDeleteFinal
		return nil
	}
	m.mode = modeBrowse
	scope := m.grid.Scope()
	ctx := m.ctx
	grid := m.grid
	return func() tea.Msg {
		return deletedMsg{err: grid.DeleteScope(ctx, scope)}
	}
}

func (m *Model) cycleSort() tea.Cmd {
	visible := m.grid.VisibleColumns()
	if m.column >= len(visible) {
		return nil
	}
	col := visible[m.column]
	if !col.Sortable || col.IsActions() {
		m.setNotice(table.NoticeWarning, fmt.Sprintf(i18n.T("tableview.sort.unsupported", "%s is not sortable"), col.Title))
		return nil
	}
	m.grid.State().CycleSort(col.Sort(false))
	m.rebuild()
	return m.fetchIfNeeded()
}

func (m *Model) current() (record.Record, bool) {
	records := m.grid.State().Records()
	idx := m.tbl.Cursor()
	if idx < 0 || idx >= len(records) {
		return record.Record{}, false
	}
	return records[idx], true
}

func (m *Model) openDetail(detailMode actions.DetailMode) {
	rec, ok := m.current()
	if !ok {
		return
	}
	if _, err := m.grid.OpenDetail(rec, detailMode); err != nil {
		m.setNotice(table.NoticeError, err.Error())
	}
}

func (m *Model) copyURL() {
	rec, ok := m.current()
	if !ok {
		return
	}
	scope := m.grid.Scope()
	target, err := actions.DetailURL(scope.BaseURL, scope.Model, rec, actions.ModeView)
	if err == nil {
		err = m.copy(target)
	}
	if err != nil {
		m.setNotice(table.NoticeError, err.Error())
		return
	}
	m.setNotice(table.NoticeInfo, fmt.Sprintf(i18n.T("tableview.copied", "Copied %s"), target))
}

func (m *Model) setNotice(level table.NoticeLevel, message string) {
	m.notice = &table.Notice{Level: level, Message: message}
}

// Matrix renders the visible columns of the loaded records. The first column
// marks selected rows.
func Matrix(grid *table.Table, markSelection bool) ([]string, [][]string) {
	visible := grid.VisibleColumns()
	state := grid.State()

	headers := make([]string, 0, len(visible)+1)
	if markSelection {
		headers = append(headers, " ")
	}
	sort := state.Sort()
	for _, col := range visible {
		title := col.Title
		if col.IsActions() {
			title = ""
		}
		if sort != nil && sort.Accessor == col.Accessor {
			if sort.Descending {
				title += sortDescending
			} else {
				title += sortAscending
			}
		}
		headers = append(headers, title)
	}

	records := state.Records()
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, 0, len(headers))
		if markSelection {
			mark := ""
			if state.IsSelected(rec.PK()) {
				mark = selectedMark
			}
			row = append(row, mark)
		}
		for _, col := range visible {
			if col.IsActions() {
				row = append(row, actionsMark)
				continue
			}
			row = append(row, col.Cell(rec))
		}
		rows[i] = row
	}
	return headers, rows
}

// StaticMatrix is Matrix without the selection and actions columns.
func StaticMatrix(grid *table.Table) ([]string, [][]string) {
	headers, rows := Matrix(grid, false)
	visible := grid.VisibleColumns()
	if n := len(visible); n == 0 || !visible[n-1].IsActions() {
		return headers, rows
	}
	last := len(headers) - 1
	for i := range rows {
		rows[i] = rows[i][:last]
	}
	return headers[:last], rows
}

func (m *Model) rebuild() {
	headers, rows := Matrix(m.grid, true)
	if len(headers) > 1 && m.column+1 < len(headers) {
		headers[m.column+1] = "[" + headers[m.column+1] + "]"
	}

	frame, _ := newTableBoxStyle(m.palette).GetFrameSize()
	padding := cellPadding(m.styles)
	widths, _ := calculateColumnWidths(headers, rows, m.width-frame-padding*len(headers))
	if len(widths) > 0 {
		widths[0] = 1
	}

	cursor := m.tbl.Cursor()
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(buildColumns(headers, widths))
	m.tbl.SetRows(convertRows(rows, widths))
	m.tbl.SetWidth(sum(widths) + padding*len(widths))

	const chrome = 9
	m.tbl.SetHeight(clamp(len(rows)+1, 2, max(m.height-chrome, 2)))
	if len(rows) > 0 {
		m.tbl.SetCursor(clamp(cursor, 0, len(rows)-1))
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	sections := []string{m.renderTitle()}

	switch {
	case m.mode == modeColumns:
		sections = append(sections, newTableBoxStyle(m.palette).Render(m.renderColumnPicker()))
	case len(m.grid.State().Records()) == 0 && !m.grid.State().Loading():
		sections = append(sections, newTableBoxStyle(m.palette).Render(m.grid.EmptyMessage()))
	default:
		sections = append(sections, newTableBoxStyle(m.palette).Render(m.tbl.View()))
	}

	sections = append(sections, newStatusBoxStyle(m.palette).Render(m.renderStatus()))
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	state := m.grid.State()
	def := m.grid.Definition()
	title := m.palette.ForegroundStyle(theme.ColorAccent).Bold(true).Render(def.Name)

	parts := []string{
		title,
		i18n.Count(state.Count(), "record", "records"),
		fmt.Sprintf(i18n.T("tableview.page", "page %d/%d"), state.Page(), max(state.PageCount(), 1)),
	}
	if term := state.Search(); term != "" {
		parts = append(parts, fmt.Sprintf("search %q", term))
	}
	if filters := state.Filters(); len(filters) > 0 {
		pairs := make([]string, 0, len(filters))
		for _, name := range util.SortedKeys(filters) {
			pairs = append(pairs, name+"="+filters[name])
		}
		parts = append(parts, "filters "+strings.Join(pairs, ","))
	}
	if n := len(state.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf(i18n.T("tableview.selected", "%d selected"), n))
	}
	return strings.Join(parts, m.palette.ForegroundStyle(theme.ColorTextMuted).Render(" · "))
}

func (m *Model) renderColumnPicker() string {
	var b strings.Builder
	b.WriteString(i18n.T("tableview.columns", "Columns (space to toggle, esc to close)"))
	for i, col := range m.switchable() {
		b.WriteString("\n")
		cursor := "  "
		if i == m.columnCursor {
			cursor = "> "
		}
		check := "[x]"
		if col.Hidden {
			check = "[ ]"
		}
		b.WriteString(cursor + check + " " + col.Title)
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	state := m.grid.State()
	switch m.mode {
	case modeSearch, modeFilter:
		return m.input.View()
	case modeExport:
		return i18n.T("tableview.export.prompt", "Export as: [c]sv, [t]sv, [x]lsx (any other key cancels)")
	case modeConfirmDelete:
		return m.palette.ForegroundStyle(theme.ColorWarning).Render(fmt.Sprintf(
			i18n.T("tableview.delete.confirm", "Delete %s? Press y to continue, any other key cancels"),
			i18n.Count(len(state.Selected()), "item", "items")))
	case modeConfirmDeleteFinal:
		return m.palette.ForegroundStyle(theme.ColorDanger).Render(fmt.Sprintf(
			i18n.T("tableview.delete.final", "This cannot be undone. Press y again to delete %s"),
			i18n.Count(len(state.Selected()), "item", "items")))
	case modeBrowse, modeColumns:
	}

	if state.Loading() {
		return m.spinner.View() + " " + i18n.T("tableview.loading", "Loading...")
	}
	if m.notice != nil {
		return m.renderNotice(*m.notice)
	}
	if msg := state.Message(); msg != "" {
		return m.palette.ForegroundStyle(theme.ColorDanger).Render(msg)
	}
	return m.palette.ForegroundStyle(theme.ColorTextMuted).Render(m.grid.ListURL())
}

func (m *Model) renderNotice(n table.Notice) string {
	token := theme.ColorInfo
	switch n.Level {
	case table.NoticeSuccess:
		token = theme.ColorSuccess
	case table.NoticeWarning:
		token = theme.ColorWarning
	case table.NoticeError:
		token = theme.ColorDanger
	case table.NoticeInfo:
	}
	text := n.Message
	if n.Title != "" {
		text = n.Title + ": " + n.Message
	}
	return m.palette.ForegroundStyle(token).Render(text)
}
