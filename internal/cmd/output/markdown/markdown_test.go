package markdown

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderPlain(t *testing.T) {
	out := Render("# Parts\n\nPart **name**", Options{NoColor: true, Width: 60})
	require.Contains(t, out, "Parts")
	require.Contains(t, out, "name")
	require.NotContains(t, out, "\x1b[")
}

func TestOptionsForBufferDisablesColor(t *testing.T) {
	opts := OptionsFor(&bytes.Buffer{})
	require.True(t, opts.NoColor)
	require.Equal(t, 100, opts.Width)
}
