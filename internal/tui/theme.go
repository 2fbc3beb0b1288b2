package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/wesm/rosterview/internal/records"
)

// palette holds the colours of one theme.
type palette struct {
	bg, bgAlt, bgCursor, bgTitle lipgloss.Color
	fg, fgMuted, fgAccent        lipgloss.Color
	flash                        lipgloss.Color
	green, red, grey             lipgloss.Color
}

var (
	darkPalette = palette{
		bg: "#000000", bgAlt: "#181818", bgCursor: "#282828", bgTitle: "#333333",
		fg: "#ffffff", fgMuted: "#999999", fgAccent: "#5fafff",
		flash: "#ffcc00",
		green: "#22c55e", red: "#ef4444", grey: "#9ca3af",
	}
	lightPalette = palette{
		bg: "#ffffff", bgAlt: "#f0f0f0", bgCursor: "#e0e0e0", bgTitle: "#e0e0e0",
		fg: "#000000", fgMuted: "#555555", fgAccent: "#005fd7",
		flash: "#996600",
		green: "#15803d", red: "#b91c1c", grey: "#4b5563",
	}
)

// theme is the full set of styles used by the views. Switching themes swaps
// the whole struct.
type theme struct {
	dark bool

	titleBar    lipgloss.Style
	stats       lipgloss.Style
	spinner     lipgloss.Style
	tableHeader lipgloss.Style
	sortedCol   lipgloss.Style
	separator   lipgloss.Style
	cursorRow   lipgloss.Style
	selectedRow lipgloss.Style
	normalRow   lipgloss.Style
	altRow      lipgloss.Style
	footer      lipgloss.Style
	errorText   lipgloss.Style
	loading     lipgloss.Style
	flash       lipgloss.Style
	modal       lipgloss.Style
	modalTitle  lipgloss.Style
	pageCurrent lipgloss.Style
	pageLink    lipgloss.Style
	label       lipgloss.Style

	badges       map[records.Status]lipgloss.Style
	badgeNeutral lipgloss.Style
}

func newTheme(dark bool) theme {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	base := lipgloss.NewStyle().Background(p.bg).Foreground(p.fg)
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	return theme{
		dark: dark,

		titleBar: lipgloss.NewStyle().
			Bold(true).
			Background(p.bgTitle).
			Foreground(p.fg).
			Padding(0, 1),
		stats:       base.Foreground(p.fgMuted).Padding(0, 1),
		spinner:     base.Bold(true),
		tableHeader: base.Bold(true),
		sortedCol:   base.Bold(true).Foreground(p.fgAccent),
		separator:   base.Faint(true),
		cursorRow:   base.Background(p.bgCursor),
		selectedRow: base.Bold(true),
		normalRow:   base,
		altRow:      base.Background(p.bgAlt),
		footer:      base.Foreground(p.fgMuted).Padding(0, 1),
		errorText:   base.Bold(true).Foreground(p.red),
		loading:     base.Italic(true),
		flash:       base.Italic(true).Foreground(p.flash),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.fgMuted).
			Padding(1, 2).
			Background(p.bg).
			Foreground(p.fg),
		modalTitle:  lipgloss.NewStyle().Bold(true),
		pageCurrent: base.Bold(true).Reverse(true),
		pageLink:    base.Foreground(p.fgAccent),
		label:       base.Bold(true),

		badges: map[records.Status]lipgloss.Style{
			records.StatusActive:   badge.Foreground(p.green),
			records.StatusInactive: badge.Foreground(p.red),
			records.StatusPending:  badge.Foreground(p.grey),
		},
		badgeNeutral: badge.Faint(true),
	}
}

// statusBadge renders a status with its badge style. Values without a
// dedicated style use the neutral badge.
func (t theme) statusBadge(s records.Status, width int) string {
	style, ok := t.badges[s]
	if !ok {
		style = t.badgeNeutral
	}
	// Padding(0, 1) adds two cells.
	return style.Render(cell(s.String(), width-2))
}
