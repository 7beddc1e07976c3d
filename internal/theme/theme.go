package theme

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	tint "github.com/lrstanley/bubbletint/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the built-in theme used when no override is provided.
const DefaultName = "invctl-light"

// Token represents a semantic color slot within the CLI.
type Token string

const (
	ColorTextPrimary   Token = "text.primary"
	ColorTextSecondary Token = "text.secondary"
	ColorTextMuted     Token = "text.muted"
	ColorBorder        Token = "border"
	ColorSurface       Token = "surface"
	ColorAccent        Token = "accent"
	ColorAccentText    Token = "accent.text"
	ColorSuccess       Token = "success"
	ColorInfo          Token = "info"
	ColorWarning       Token = "warning"
	ColorDanger        Token = "danger"
	ColorSelection     Token = "selection"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

// Adaptive converts the color into a lipgloss adaptive color.
func (c Color) Adaptive() lipgloss.AdaptiveColor {
	light, dark := strings.TrimSpace(c.Light), strings.TrimSpace(c.Dark)
	switch {
	case light == "" && dark == "":
		return lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	case light == "":
		light = dark
	case dark == "":
		dark = light
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette represents a concrete theme.
type Palette struct {
	Name        string
	DisplayName string
	Colors      map[Token]Color
}

// Color returns a color for the provided token, falling back to the default palette.
func (p Palette) Color(token Token) Color {
	if c, ok := p.Colors[token]; ok {
		return c
	}
	if c, ok := lightPalette().Colors[token]; ok {
		return c
	}
	return Color{}
}

// Adaptive returns the lipgloss adaptive color for the provided token.
func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

// ForegroundStyle returns a lipgloss style with the foreground set to the requested token.
func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

var (
	registryOnce sync.Once
	registryMu   sync.RWMutex
	palettes     map[string]Palette
	current      Palette
)

// Available returns the list of registered theme IDs (sorted).
func Available() []string {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCurrent sets the active palette.
func SetCurrent(name string) error {
	ensureRegistry()

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown color theme %q, must be one of %v", name, sortedNames())
	}
	current = p
	return nil
}

// Current returns the active palette.
func Current() Palette {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	return current
}

func sortedNames() []string {
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func ensureRegistry() {
	registryOnce.Do(func() {
		registryMu.Lock()
		defer registryMu.Unlock()

		palettes = make(map[string]Palette)
		for _, p := range []Palette{lightPalette(), darkPalette(), accentPalette("invctl-teal", "#0F766E")} {
			palettes[p.Name] = p
		}
		// terminal color schemes; the built-in names win on a clash
		for _, t := range tint.DefaultTints() {
			p := paletteFromTint(t)
			if _, taken := palettes[p.Name]; p.Name != "" && !taken {
				palettes[p.Name] = p
			}
		}
		current = palettes[DefaultName]
	})
}

// paletteFromTint maps a terminal color scheme onto the grid tokens. Schemes
// have one background, so light and dark variants are the same.
func paletteFromTint(t *tint.Tint) Palette {
	if t == nil {
		return Palette{}
	}
	fg := tintHex(t.Fg)
	bg := tintHex(t.Bg)
	muted := tintHex(t.BrightBlack)
	accent := tintHex(t.BrightBlue)

	colors := map[Token]Color{
		ColorTextPrimary:   same(fg),
		ColorTextSecondary: same(lightenHex(fg, 0.2)),
		ColorTextMuted:     same(muted),
		ColorBorder:        same(muted),
		ColorSurface:       same(bg),
		ColorAccent:        same(accent),
		ColorAccentText:    same(contrastColor(accent)),
		ColorSuccess:       same(tintHex(t.Green)),
		ColorInfo:          same(tintHex(t.Blue)),
		ColorWarning:       same(tintHex(t.Yellow)),
		ColorDanger:        same(tintHex(t.Red)),
		ColorSelection:     same(darkenHex(accent, 0.5)),
	}
	for token, c := range colors {
		if c.Light == "" {
			delete(colors, token)
		}
	}

	return Palette{
		Name:        strings.ToLower(strings.TrimSpace(t.ID)),
		DisplayName: strings.TrimSpace(t.DisplayName),
		Colors:      colors,
	}
}

func tintHex(c *tint.Color) string {
	if c == nil {
		return ""
	}
	return normalizeHex(c.Hex())
}

func same(hex string) Color {
	return Color{Light: hex, Dark: hex}
}

// normalizeHex returns #RRGGBB, expanding the short form and dropping alpha.
// Anything else becomes "".
func normalizeHex(hex string) string {
	h := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(hex), "#"))
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 8:
		h = h[:6]
	case 6:
	default:
		return ""
	}
	if _, err := colorful.Hex("#" + h); err != nil {
		return ""
	}
	return "#" + h
}

// accentPalette derives a full palette from a single brand color.
func accentPalette(name, accent string) Palette {
	return Palette{
		Name:        name,
		DisplayName: name,
		Colors: map[Token]Color{
			ColorTextPrimary:   {Light: "#111827", Dark: "#F9FAFB"},
			ColorTextSecondary: {Light: darkenHex(accent, 0.4), Dark: lightenHex(accent, 0.5)},
			ColorTextMuted:     {Light: "#6B7280", Dark: "#9CA3AF"},
			ColorBorder:        {Light: lightenHex(accent, 0.6), Dark: darkenHex(accent, 0.3)},
			ColorSurface:       {Light: lightenHex(accent, 0.9), Dark: darkenHex(accent, 0.8)},
			ColorAccent:        {Light: accent, Dark: lightenHex(accent, 0.2)},
			ColorAccentText:    {Light: contrastColor(accent), Dark: contrastColor(lightenHex(accent, 0.2))},
			ColorSuccess:       {Light: "#15803D", Dark: "#4ADE80"},
			ColorInfo:          {Light: "#1D4ED8", Dark: "#60A5FA"},
			ColorWarning:       {Light: "#B45309", Dark: "#FBBF24"},
			ColorDanger:        {Light: "#B91C1C", Dark: "#F87171"},
			ColorSelection:     {Light: lightenHex(accent, 0.7), Dark: darkenHex(accent, 0.5)},
		},
	}
}

func lightPalette() Palette {
	p := accentPalette(DefaultName, "#2563EB")
	p.DisplayName = "invctl Light"
	return p
}

func darkPalette() Palette {
	p := accentPalette("invctl-dark", "#93C5FD")
	p.DisplayName = "invctl Dark"
	p.Colors[ColorTextPrimary] = Color{Light: "#F9FAFB", Dark: "#F9FAFB"}
	return p
}

func contrastColor(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "#111827"
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.55 {
		return "#111827"
	}
	return "#F9FAFB"
}

func lightenHex(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, amount).Clamped().Hex()
}

func darkenHex(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return c.BlendLab(colorful.Color{R: 0, G: 0, B: 0}, amount).Clamped().Hex()
}
