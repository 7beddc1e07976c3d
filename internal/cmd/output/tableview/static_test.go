package tableview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"
)

func TestStaticRendersBorderedTable(t *testing.T) {
	out := &bytes.Buffer{}
	err := Static(out, "Parts", []string{"ID", "Name"}, [][]string{
		{"1", "Resistor 10k"},
		{"2", "Capacitor 100nF"},
	}, "2 records")
	require.NoError(t, err)

	text := out.String()
	require.True(t, strings.HasPrefix(text, "Parts\n"))
	require.Contains(t, text, "┌")
	require.Contains(t, text, "Resistor 10k")
	require.Contains(t, text, "Capacitor 100nF")
	require.Contains(t, text, "2 records")
	require.True(t, strings.HasSuffix(text, "\n2 records\n"))
	for _, line := range strings.Split(text, "\n") {
		require.Equal(t, strings.TrimRight(line, " "), line, "no trailing padding")
	}
}

func TestStaticMessageWithTitle(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, Static(out, "Parts", []string{"ID"}, nil, ""))
	require.Equal(t, "Parts\nNo data to display.\n", out.String())
}

func TestStaticEmpty(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, Static(out, "", []string{"ID"}, nil, ""))
	require.Equal(t, "No data to display.\n", out.String())
}

func TestFitCell(t *testing.T) {
	require.Equal(t, "Wire red", fitCell("Wire\nred", 20))
	require.Equal(t, "LED green", fitCell("\x1b[32mLED green\x1b[0m", 20))

	got := fitCell("Capacitor 100nF", 6)
	require.LessOrEqual(t, runewidth.StringWidth(got), 6)
	require.True(t, strings.HasSuffix(got, ellipsis))
}

func TestCalculateColumnWidthsShrinksWidest(t *testing.T) {
	headers := []string{"ID", "Name"}
	rows := [][]string{{"1", strings.Repeat("x", 40)}}

	widths, mins := calculateColumnWidths(headers, rows, 0)
	require.Equal(t, []int{minColumnWidth, 40}, widths)
	require.Equal(t, []int{minColumnWidth, minColumnWidth}, mins)

	widths, _ = calculateColumnWidths(headers, rows, 20)
	require.Equal(t, 20, sum(widths))
	require.Equal(t, minColumnWidth, widths[0])
}
