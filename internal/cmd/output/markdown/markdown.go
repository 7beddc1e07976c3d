// Package markdown renders markdown help text for the terminal.
package markdown

import (
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/muesli/termenv"
)

// Options controls rendering.
type Options struct {
	NoColor bool
	Width   int
}

// OptionsFor picks colors and width from the output stream.
func OptionsFor(out io.Writer) Options {
	width, _ := iostreams.TerminalSize(out, 100, 24)
	return Options{NoColor: !iostreams.IsTerminal(out), Width: width}
}

// Render renders md, returning it unchanged when rendering fails.
func Render(md string, opts Options) string {
	r, err := newRenderer(opts)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return normalizeSpacing(out)
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	options := []glamour.TermRendererOption{}
	if opts.NoColor {
		options = append(options,
			glamour.WithStandardStyle("notty"),
			glamour.WithColorProfile(termenv.Ascii),
		)
	} else {
		options = append(options,
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
	}
	if opts.Width > 0 {
		options = append(options, glamour.WithWordWrap(opts.Width))
	}
	return glamour.NewTermRenderer(options...)
}

// normalizeSpacing trims the padding glamour adds around the document.
func normalizeSpacing(s string) string {
	trimmed := strings.TrimSpace(s)
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n")
}
