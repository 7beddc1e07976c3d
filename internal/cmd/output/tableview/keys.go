package tableview

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	NextColumn key.Binding
	PrevColumn key.Binding
	Sort       key.Binding
	Search     key.Binding
	Filter     key.Binding
	ClearAll   key.Binding
	Select     key.Binding
	SelectAll  key.Binding
	Deselect   key.Binding
	Columns    key.Binding
	Delete     key.Binding
	Export     key.Binding
	Open       key.Binding
	Edit       key.Binding
	Duplicate  key.Binding
	CopyURL    key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextPage:   key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
		PrevPage:   key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
		NextColumn: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		PrevColumn: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		ClearAll:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "clear filters")),
		Select:     key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select")),
		SelectAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select page")),
		Deselect:   key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "clear selection")),
		Columns:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "columns")),
		Delete:     key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete selected")),
		Export:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Edit:       key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "edit")),
		Duplicate:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "duplicate")),
		CopyURL:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "copy URL")),
		Refresh:    key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.Sort, k.Search, k.Select, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage, k.NextColumn, k.PrevColumn},
		{k.Sort, k.Search, k.Filter, k.ClearAll, k.Columns, k.Refresh},
		{k.Select, k.SelectAll, k.Deselect, k.Delete, k.Export},
		{k.Open, k.Edit, k.Duplicate, k.CopyURL, k.Help, k.Quit},
	}
}
