package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/textutil"
	"github.com/wesm/rosterview/internal/view"
)

// Fixed column widths. Name and Email share the remaining space.
const (
	selWidth     = 3
	balanceWidth = 14
	dateWidth    = 12
	statusWidth  = 10
	actionWidth  = 6
	minFlexWidth = 8
)

// actionGlyphs are the display-only edit/delete glyphs of the action column.
const actionGlyphs = "✎  ✗"

type columnLayout struct {
	name, email int
}

func (m Model) columns() columnLayout {
	// Six single-space gaps between seven columns.
	rest := m.width - selWidth - balanceWidth - dateWidth - statusWidth - actionWidth - 6
	name := max(minFlexWidth, rest*2/5)
	email := max(minFlexWidth, rest-name)
	return columnLayout{name: name, email: email}
}

// spinnerIndicator returns the current spinner frame, or "" when idle.
func (m Model) spinnerIndicator() string {
	if !m.busy() {
		return ""
	}
	return spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
}

// buildTitleBar renders the top line with the program name and screen.
func (m Model) buildTitleBar() string {
	title := "rosterview"
	if m.version != "" {
		title += " " + m.version
	}
	switch m.screen {
	case screenSequence:
		title += " │ Sequence"
	default:
		title += " │ Roster"
	}
	if m.theme.dark {
		title += " │ dark"
	} else {
		title += " │ light"
	}
	return m.theme.titleBar.Render(padRight(title, m.width-2))
}

// headerView renders the title bar and the info line.
func (m Model) headerView() string {
	return m.buildTitleBar() + "\n" + m.renderInfoLine()
}

// renderInfoLine shows the search box or term on the left and result
// statistics on the right.
func (m Model) renderInfoLine() string {
	var left string
	switch {
	case m.flashMessage != "":
		left = m.theme.flash.Render(" " + m.flashMessage)
	case m.searchActive:
		left = " " + m.searchInput.View()
	case m.snap.Params.SearchTerm != "":
		left = m.theme.stats.Render(fmt.Sprintf("search: %q (esc clears)", m.snap.Params.SearchTerm))
	}

	var parts []string
	if m.snap.Status == view.LoadReady {
		parts = append(parts, fmt.Sprintf("%d results", m.snap.TotalCount))
	}
	if sk := m.snap.Params.SortKey; sk != records.FieldNone {
		parts = append(parts, fmt.Sprintf("sort %s %s", sk.Label(), sortArrow(m.snap.Params.Direction)))
	}
	parts = append(parts, fmt.Sprintf("%s · %d/page", m.snap.Params.Mode, m.snap.Params.PageSize))
	right := strings.Join(parts, " · ")
	if spin := m.spinnerIndicator(); spin != "" {
		right = m.theme.spinner.Render(spin) + " " + right
	}
	right = m.theme.stats.Render(right)

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + m.theme.normalRow.Render(strings.Repeat(" ", gap)) + right
}

func sortArrow(d view.Direction) string {
	if d == view.Desc {
		return "↓"
	}
	return "↑"
}

// tableView renders the column header, separator and exactly tableRows body
// lines.
func (m Model) tableView() string {
	var sb strings.Builder
	sb.WriteString(m.tableHeader())
	sb.WriteString("\n")
	sb.WriteString(m.theme.separator.Render(strings.Repeat("─", max(0, m.width))))
	sb.WriteString("\n")

	rows := m.tableRows()
	var body []string
	switch m.snap.Status {
	case view.LoadIdle, view.LoadLoading:
		body = append(body, m.theme.loading.Render(padRight(m.spinnerIndicator()+" Loading roster...", m.width)))
	case view.LoadFailed:
		body = append(body,
			m.theme.errorText.Render(padRight(fmt.Sprintf("Error loading data: %v", m.snap.Err), m.width)),
			m.theme.normalRow.Render(padRight("Press r to retry", m.width)),
		)
	default:
		body = m.recordRows(rows)
	}

	for len(body) < rows {
		body = append(body, m.theme.normalRow.Render(strings.Repeat(" ", max(0, m.width))))
	}
	sb.WriteString(strings.Join(body[:rows], "\n"))
	return sb.String()
}

// tableHeader renders the column labels. The selection column shows the
// state of the visible rows: all, some or none selected.
func (m Model) tableHeader() string {
	cols := m.columns()

	mark := "[ ]"
	if m.snap.AllVisibleSelected {
		mark = "[x]"
	} else if m.anyVisibleSelected() {
		mark = "[-]"
	}

	label := func(f records.Field, width int, right bool) string {
		text := f.Label()
		if m.snap.Params.SortKey == f {
			text += sortArrow(m.snap.Params.Direction)
		}
		var s string
		if right {
			s = padLeft(truncateRunes(text, width), width)
		} else {
			s = cell(text, width)
		}
		if m.snap.Params.SortKey == f {
			return m.theme.sortedCol.Render(s)
		}
		return m.theme.tableHeader.Render(s)
	}

	sp := m.theme.tableHeader.Render(" ")
	line := m.theme.tableHeader.Render(mark) + sp +
		label(records.FieldName, cols.name, false) + sp +
		label(records.FieldBalance, balanceWidth, true) + sp +
		label(records.FieldEmail, cols.email, false) + sp +
		label(records.FieldRegisteredAt, dateWidth, false) + sp +
		label(records.FieldStatus, statusWidth, false) + sp +
		m.theme.tableHeader.Render(cell("Action", actionWidth))
	return m.padLine(line, m.theme.tableHeader)
}

func (m Model) anyVisibleSelected() bool {
	for _, r := range m.snap.Visible {
		if m.snap.IsSelected(r.ID) {
			return true
		}
	}
	return false
}

// recordRows renders the scrolled window of visible records, followed by the
// sentinel row when the cumulative view can grow.
func (m Model) recordRows(rows int) []string {
	visible := m.snap.Visible
	if len(visible) == 0 {
		text := "No records"
		if term := m.snap.Params.SearchTerm; term != "" {
			text = fmt.Sprintf("No records match %q", term)
		}
		return []string{m.theme.normalRow.Render(padRight(text, m.width))}
	}

	count := len(visible)
	if m.hasSentinel() {
		count++
	}
	end := min(m.scrollOffset+rows, count)

	out := make([]string, 0, rows)
	for i := m.scrollOffset; i < end; i++ {
		if i == len(visible) {
			out = append(out, m.sentinelRow())
			continue
		}
		out = append(out, m.recordRow(i, visible[i]))
	}
	return out
}

func (m Model) recordRow(i int, r records.Record) string {
	cols := m.columns()
	selected := m.snap.IsSelected(r.ID)

	style := m.theme.normalRow
	switch {
	case i == m.cursor:
		style = m.theme.cursorRow
	case selected:
		style = m.theme.selectedRow
	case i%2 == 1:
		style = m.theme.altRow
	}

	mark := "[ ]"
	if selected {
		mark = "[x]"
	}

	left := mark + " " +
		cell(r.Name, cols.name) + " " +
		padLeft(textutil.FormatBalance(r.Balance), balanceWidth) + " " +
		cell(r.Email, cols.email) + " " +
		cell(textutil.FormatDate(r.RegisteredAt), dateWidth) + " "

	line := style.Render(left) +
		m.theme.statusBadge(r.Status, statusWidth) +
		style.Render(" "+cell(actionGlyphs, actionWidth))
	return m.padLine(line, style)
}

func (m Model) sentinelRow() string {
	text := fmt.Sprintf("%s loading more (%d of %d shown)",
		spinnerFrames[m.spinnerFrame%len(spinnerFrames)], len(m.snap.Visible), m.snap.TotalCount)
	return m.theme.loading.Render(padRight(text, m.width))
}

// padLine fills a styled line out to the screen width.
func (m Model) padLine(line string, style lipgloss.Style) string {
	if w := lipgloss.Width(line); w < m.width {
		return line + style.Render(strings.Repeat(" ", m.width-w))
	}
	return truncateToWidth(line, m.width)
}

// paginationView renders the page links in paged mode and the reveal
// progress in cumulative mode. The right side shows the full registration
// timestamp of the cursor row.
func (m Model) paginationView() string {
	if m.snap.Status != view.LoadReady {
		return m.theme.normalRow.Render(strings.Repeat(" ", max(0, m.width)))
	}

	var left string
	if m.snap.Params.Mode == view.ModePaged {
		left = m.pageLinks()
	} else {
		status := "all loaded"
		if m.snap.HasMore {
			status = "scroll for more"
		}
		left = m.theme.stats.Render(fmt.Sprintf("showing %d of %d · %s", len(m.snap.Visible), m.snap.TotalCount, status))
	}

	var right string
	if m.cursor < len(m.snap.Visible) {
		r := m.snap.Visible[m.cursor]
		right = m.theme.stats.Render("registered " + textutil.FormatTimestamp(r.RegisteredAt.Local()))
	}

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + m.theme.normalRow.Render(strings.Repeat(" ", gap)) + right
}

func (m Model) pageLinks() string {
	current := m.snap.Params.Cursor
	total := m.snap.TotalPages
	if total == 0 {
		return m.theme.stats.Render("no pages")
	}

	parts := []string{m.theme.stats.Render(" ‹")}
	for _, p := range view.PageLinks(current, total) {
		switch p {
		case 0:
			parts = append(parts, m.theme.stats.Render("…"))
		case current:
			parts = append(parts, m.theme.pageCurrent.Render(" "+strconv.Itoa(p)+" "))
		default:
			parts = append(parts, m.theme.pageLink.Render(strconv.Itoa(p)))
		}
	}
	parts = append(parts, m.theme.stats.Render("›"))
	return strings.Join(parts, m.theme.normalRow.Render(" ")) +
		m.theme.stats.Render(fmt.Sprintf("  page %d of %d", current, total))
}

// footerView renders the key hints with selection and position on the right.
func (m Model) footerView() string {
	var keys []string
	var posStr, selStr string

	if m.snap.SelectedCount > 0 {
		selStr = fmt.Sprintf(" [%d selected] ", m.snap.SelectedCount)
	}

	switch m.screen {
	case screenSequence:
		keys = []string{"enter start", "esc cancel", "↑/↓ field", "tab roster", "ctrl+c quit"}
		if m.seq.total > 0 {
			posStr = fmt.Sprintf(" %d/%d ", m.seq.index, m.seq.total)
		}
	default:
		if m.searchActive {
			keys = []string{"enter done", "esc clear"}
		} else {
			keys = []string{"↑/↓", "space sel", "a all", "/ search", "1-6 sort", "←/→ page", "v mode", "r reload", "tab seq", "? help"}
		}
		if n := len(m.snap.Visible); n > 0 {
			posStr = fmt.Sprintf(" %d/%d ", m.cursor+1, n)
		}
	}

	keysStr := strings.Join(keys, " │ ")
	right := selStr + posStr
	gap := max(0, m.width-lipgloss.Width(keysStr)-lipgloss.Width(right)-2)
	return m.theme.footer.Render(truncateToWidth(keysStr+strings.Repeat(" ", gap)+right, max(0, m.width-2)))
}

// overlayModal renders the active modal centred over background.
func (m Model) overlayModal(background string) string {
	var modalContent string

	switch m.modal {
	case modalQuitConfirm:
		modalContent = m.renderQuitConfirmModal()
	case modalHelp:
		modalContent = m.renderHelpModal()
	}

	if modalContent == "" {
		return background
	}

	modal := m.theme.modal.Render(modalContent)

	bgLines := strings.Split(background, "\n")
	modalLines := strings.Split(modal, "\n")

	startLine := max(0, (len(bgLines)-len(modalLines))/2)
	modalWidth := lipgloss.Width(modal)
	leftPadding := max(0, (m.width-modalWidth)/2)

	// Overlay modal onto background, preserving background where modal doesn't cover
	for i, modalLine := range modalLines {
		lineIdx := startLine + i
		if lineIdx >= len(bgLines) {
			break
		}
		bgLine := bgLines[lineIdx]
		bgWidth := lipgloss.Width(bgLine)

		var composite strings.Builder
		if leftPadding > 0 {
			leftBg := truncateToWidth(bgLine, leftPadding)
			composite.WriteString(leftBg)
			if w := lipgloss.Width(leftBg); w < leftPadding {
				composite.WriteString(strings.Repeat(" ", leftPadding-w))
			}
		}
		composite.WriteString(modalLine)
		if rightStart := leftPadding + modalWidth; rightStart < bgWidth {
			composite.WriteString(skipToWidth(bgLine, rightStart))
		}
		bgLines[lineIdx] = composite.String()
	}

	return strings.Join(bgLines, "\n")
}

func (m Model) renderQuitConfirmModal() string {
	var sb strings.Builder
	sb.WriteString(m.theme.modalTitle.Render("Quit rosterview?"))
	sb.WriteString("\n\n")
	if m.seq.running {
		sb.WriteString("A sequence is still running.\n\n")
	}
	sb.WriteString("[Y] Yes    [N] No")
	return sb.String()
}

func (m Model) renderHelpModal() string {
	var sb strings.Builder
	sb.WriteString(m.theme.modalTitle.Render("Keys"))
	sb.WriteString("\n")
	for _, group := range rosterKeys.helpGroups() {
		sb.WriteString("\n")
		// Two bindings per line keeps the modal within a 24-line terminal.
		for i := 0; i < len(group); i += 2 {
			sb.WriteString(helpEntry(group[i]))
			if i+1 < len(group) {
				sb.WriteString("  " + helpEntry(group[i+1]))
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\nSort columns: ")
	labels := make([]string, len(records.Fields))
	for i, f := range records.Fields {
		labels[i] = fmt.Sprintf("%d %s", i+1, f.Label())
	}
	sb.WriteString(strings.Join(labels, ", "))
	sb.WriteString("\n\nPress any key to close")
	return sb.String()
}

func helpEntry(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%-6s %-18s", h.Key, h.Desc)
}

// sequenceView renders the sequence screen: inputs, progress and the
// result log, filled out to the screen height.
func (m Model) sequenceView() string {
	s := m.seq
	body := []string{
		"",
		m.theme.label.Render(" Numbers    ") + s.numbers.View(),
		m.theme.label.Render(" Delay (ms) ") + s.delay.View(),
		"",
		" " + s.bar.ViewAs(float64(s.percent())/100) +
			fmt.Sprintf(" %d/%d (%d%%)", s.index, s.total, s.percent()),
		"",
	}
	if s.err != "" {
		body = append(body, m.theme.errorText.Render(" "+s.err), "")
	}
	body = append(body, m.theme.label.Render(" Results"))

	avail := max(0, m.height-3-len(body))
	logLines := s.log
	if len(logLines) > avail {
		logLines = logLines[len(logLines)-avail:]
	}
	for _, line := range logLines {
		body = append(body, "  "+line)
	}
	for len(body) < m.height-3 {
		body = append(body, "")
	}
	if len(body) > m.height-3 {
		body = body[:max(0, m.height-3)]
	}
	for i, line := range body {
		body[i] = m.padLine(line, m.theme.normalRow)
	}

	out := m.headerView() + "\n"
	if len(body) > 0 {
		out += strings.Join(body, "\n") + "\n"
	}
	return out + m.footerView()
}
