package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// flattenCell keeps a record value on one table row.
var flattenCell = strings.NewReplacer("\r", "", "\n", " ", "\t", " ")

// align fits s into width terminal cells, padding on the left when right is
// set. Styled text is measured and cut without counting escape sequences.
func align(s string, width int, right bool) string {
	if width <= 0 {
		return ""
	}
	gap := width - lipgloss.Width(s)
	switch {
	case gap <= 0:
		return ansi.Truncate(s, width, "")
	case right:
		return strings.Repeat(" ", gap) + s
	default:
		return s + strings.Repeat(" ", gap)
	}
}

func padRight(s string, width int) string { return align(s, width, false) }

// padLeft right-aligns numeric columns such as balances.
func padLeft(s string, width int) string { return align(s, width, true) }

// truncateRunes shortens a plain record value to maxWidth cells, marking the
// cut with "..." when there is room for it. CJK names count two cells a rune.
func truncateRunes(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	s = flattenCell.Replace(s)
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	tail := "..."
	if maxWidth <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(s, maxWidth, tail)
}

// cell renders one table column at exactly width cells.
func cell(s string, width int) string {
	return padRight(truncateRunes(s, width), width)
}

// truncateToWidth and skipToWidth split a styled line at a column, which
// the overlay code uses to splice the help box over the table.
func truncateToWidth(s string, maxWidth int) string {
	return ansi.Truncate(s, maxWidth, "")
}

func skipToWidth(s string, skipWidth int) string {
	return ansi.Cut(s, skipWidth, lipgloss.Width(s))
}
