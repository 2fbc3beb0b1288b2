package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/rosterview/internal/view"
)

// tableRows is the number of body rows the roster table can show. The
// chrome takes six lines: title, info, column header, separator,
// pagination and footer.
func (m Model) tableRows() int {
	return max(1, m.height-6)
}

// hasSentinel reports whether the table ends with the end-of-list row that
// grows a cumulative view.
func (m Model) hasSentinel() bool {
	return m.snap.Status == view.LoadReady &&
		m.snap.Params.Mode == view.ModeCumulative &&
		m.snap.HasMore
}

// sentinelVisible reports whether the end-of-list row falls inside the
// scrolled viewport.
func (m Model) sentinelVisible() bool {
	if m.height == 0 || !m.hasSentinel() {
		return false
	}
	return len(m.snap.Visible) < m.scrollOffset+m.tableRows()
}

// checkSentinel schedules a growth check. Each successful growth schedules
// another, so the view keeps filling until the sentinel scrolls out of
// view or every record is shown.
func (m Model) checkSentinel() tea.Cmd {
	if !m.sentinelVisible() {
		return nil
	}
	return func() tea.Msg { return sentinelCheckMsg{} }
}

// calculateScrollOffset computes the scroll offset needed to keep the cursor
// visible within a viewport of the given page size.
func calculateScrollOffset(cursor, currentOffset, pageSize int) int {
	if cursor < currentOffset {
		return cursor
	}
	if cursor >= currentOffset+pageSize {
		return cursor - pageSize + 1
	}
	return currentOffset
}

// ensureCursorVisible scrolls the table so the cursor row is shown. With the
// cursor on the last record of a growable view the sentinel row below it is
// brought into view as well.
func (m *Model) ensureCursorVisible() {
	rows := m.tableRows()
	m.scrollOffset = calculateScrollOffset(m.cursor, m.scrollOffset, rows)
	n := len(m.snap.Visible)
	if m.hasSentinel() && n > 0 && m.cursor == n-1 {
		m.scrollOffset = max(m.scrollOffset, n+1-rows)
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// navigateList moves the cursor for the standard list keys and reports
// whether the key was a navigation key.
func (m *Model) navigateList(key string, itemCount int) bool {
	rows := m.tableRows()
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < itemCount-1 {
			m.cursor++
		}
	case "pgup", "ctrl+u":
		m.cursor -= rows
	case "pgdown", "ctrl+d":
		m.cursor += rows
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = itemCount - 1
	default:
		return false
	}
	m.cursor = min(m.cursor, itemCount-1)
	m.cursor = max(m.cursor, 0)
	m.ensureCursorVisible()
	return true
}
