// Package tableview renders tables in the terminal: a bordered static table for
// pipes and files, and an interactive bubbletea grid for terminals.
package tableview

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/theme"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

const (
	defaultWidth   = 120
	defaultHeight  = 24
	minColumnWidth = 4
	maxColumnWidth = 60
	ellipsis       = "…"
)

// Static writes headers and rows as a bordered table sized to the terminal width
// of out. Cells wider than their column are truncated with an ellipsis.
func Static(out io.Writer, title string, headers []string, rows [][]string, footer string) error {
	if out == nil {
		return errors.New("tableview: output stream is not available")
	}
	if len(headers) == 0 || len(rows) == 0 {
		return writeStaticMessage(out, title, "No data to display.")
	}

	width, _ := iostreams.TerminalSize(out, defaultWidth, defaultHeight)
	palette := theme.Current()
	box := newTableBoxStyle(palette)

	styles := tableStyles(palette)
	styles.Selected = styles.Cell
	padding := cellPadding(styles)
	frame, _ := box.GetFrameSize()

	widths, _ := calculateColumnWidths(headers, rows, width-frame-padding*len(headers))
	tbl := table.New(
		table.WithColumns(buildColumns(headers, widths)),
		table.WithRows(convertRows(rows, widths)),
		table.WithStyles(styles),
		table.WithHeight(len(rows)+1),
	)
	tbl.SetWidth(sum(widths) + padding*len(widths))
	tbl.Blur()

	// title and footer are written as is; joining them with the box would pad
	// them to its width
	var sb strings.Builder
	if title != "" {
		sb.WriteString(title + "\n")
	}
	sb.WriteString(box.Render(tbl.View()) + "\n")
	if footer != "" {
		sb.WriteString(footer + "\n")
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

func writeStaticMessage(out io.Writer, title, message string) error {
	if title != "" {
		message = title + "\n" + message
	}
	_, err := fmt.Fprintln(out, message)
	return err
}

func newTableBoxStyle(p theme.Palette) lipgloss.Style {
	return lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Adaptive(theme.ColorBorder)).
		Padding(0, 1)
}

func newStatusBoxStyle(p theme.Palette) lipgloss.Style {
	return lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Adaptive(theme.ColorBorder)).
		Padding(0, 1)
}

func tableStyles(p theme.Palette) table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(p.Adaptive(theme.ColorTextPrimary)).
		Background(p.Adaptive(theme.ColorSurface)).
		Bold(true)
	styles.Cell = styles.Cell.Foreground(p.Adaptive(theme.ColorTextPrimary))
	styles.Selected = styles.Selected.
		Foreground(p.Adaptive(theme.ColorAccentText)).
		Background(p.Adaptive(theme.ColorAccent))
	return styles
}

func cellPadding(styles table.Styles) int {
	return max(
		lipgloss.Width(styles.Header.Render("")),
		lipgloss.Width(styles.Cell.Render("")),
	)
}

func buildColumns(headers []string, widths []int) []table.Column {
	cols := make([]table.Column, len(headers))
	for i, header := range headers {
		cols[i] = table.Column{Title: fitCell(header, widths[i]), Width: widths[i]}
	}
	return cols
}

func convertRows(rows [][]string, widths []int) []table.Row {
	rv := make([]table.Row, len(rows))
	for i, row := range rows {
		cells := make(table.Row, len(widths))
		for j := range widths {
			if j < len(row) {
				cells[j] = fitCell(row[j], widths[j])
			}
		}
		rv[i] = cells
	}
	return rv
}

// fitCell drops escape sequences and newlines, then truncates to width.
func fitCell(value string, width int) string {
	value = strings.Join(strings.Fields(ansi.Strip(value)), " ")
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	return truncate.StringWithTail(value, uint(width), ellipsis)
}

// calculateColumnWidths sizes each column to its widest cell, then narrows the
// widest columns until the total fits widthLimit or every column is at its minimum.
func calculateColumnWidths(headers []string, rows [][]string, widthLimit int) ([]int, []int) {
	widths := make([]int, len(headers))
	minWidths := make([]int, len(headers))
	for i, header := range headers {
		headerWidth := runewidth.StringWidth(header)
		minWidths[i] = clamp(headerWidth, minColumnWidth, maxColumnWidth)

		widest := headerWidth
		for _, row := range rows {
			if i < len(row) {
				widest = max(widest, runewidth.StringWidth(ansi.Strip(row[i])))
			}
		}
		widths[i] = max(clamp(widest, minColumnWidth, maxColumnWidth), minWidths[i])
	}

	if widthLimit <= 0 {
		return widths, minWidths
	}
	for total := sum(widths); total > widthLimit; total-- {
		idx := widestColumnAboveMin(widths, minWidths)
		if idx == -1 {
			break
		}
		widths[idx]--
	}
	return widths, minWidths
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func widestColumnAboveMin(widths, minWidths []int) int {
	idx := -1
	widest := math.MinInt
	for i, width := range widths {
		if width > widest && width > minWidths[i] {
			widest = width
			idx = i
		}
	}
	return idx
}

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
