// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// FRAME
	// ==========================================================================

	Header   lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style
	HelpKey  lipgloss.Style

	// ==========================================================================
	// SLOT LIST
	// ==========================================================================

	Row          lipgloss.Style
	RowCursor    lipgloss.Style
	SelectedMark lipgloss.Style
	SlotType     lipgloss.Style
	Empty        lipgloss.Style

	// ==========================================================================
	// FORMS
	// ==========================================================================

	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Panel        lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorBody    lipgloss.Style
	Pending      lipgloss.Style
}

// NewTheme detects the terminal and builds the styles.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// DisableColor renders every style without color for the rest of the
// process.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted).
		MarginTop(1)

	t.HelpKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Row = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.RowCursor = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(2)

	t.SelectedMark = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.SlotType = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Empty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		PaddingLeft(2)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(18)

	t.LabelFocused = t.Label.
		Foreground(Cyan).
		Bold(true)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 2)

	t.ErrorTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ErrorBody = lipgloss.NewStyle().
		Foreground(Rose)

	t.Pending = lipgloss.NewStyle().
		Foreground(Amber)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// ContentWidth is the usable width inside the page padding, never below 20.
func (t *Theme) ContentWidth() int {
	w := t.Width - 4
	if w < 20 {
		return 20
	}
	return w
}

// RenderHelp formats key/description pairs as a single help line.
func (t *Theme) RenderHelp(pairs ...[2]string) string {
	out := ""
	for i, p := range pairs {
		if i > 0 {
			out += "  "
		}
		out += t.HelpKey.Render(p[0]) + " " + p[1]
	}
	return t.Help.Render(out)
}
