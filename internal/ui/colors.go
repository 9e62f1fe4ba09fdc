package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	accent lipgloss.Color
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		accent: lipgloss.Color(t),
	}
}

// ThemePalette builds the palette of a named theme, falling back to the default theme.
func ThemePalette(name string) *Palette {
	c, ok := themes[name]
	if !ok {
		c = themes[defaultTheme]
	}
	return NewPalette(c[0], c[1], c[2], c[3], c[4])
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
