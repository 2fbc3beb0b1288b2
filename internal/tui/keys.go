package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/view"
)

// pageSizeStep is how much +/- change the page size.
const pageSizeStep = 5

// keyMap holds the roster bindings. The help modal is rendered from the
// same bindings that dispatch keys.
type keyMap struct {
	Up, Down, PageUp, PageDown key.Binding
	Toggle, ToggleAll          key.Binding
	ClearSelection             key.Binding
	Search, ClearSearch        key.Binding
	Sort, Unsort               key.Binding
	Grow, Shrink, Mode         key.Binding
	PrevPage, NextPage         key.Binding
	FirstPage, LastPage        key.Binding
	Reload, Theme, Screen      key.Binding
	Help, Quit                 key.Binding
}

var rosterKeys = keyMap{
	Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:         key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
	PageDown:       key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
	Toggle:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select row")),
	ToggleAll:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all visible")),
	ClearSelection: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear selection")),
	Search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	ClearSearch:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
	Sort:           key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "sort by column")),
	Unsort:         key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "unsorted")),
	Grow:           key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "bigger pages")),
	Shrink:         key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "smaller pages")),
	Mode:           key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "paged/cumulative")),
	PrevPage:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous page")),
	NextPage:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
	FirstPage:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "first page")),
	LastPage:       key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "last page")),
	Reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Theme:          key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "light/dark")),
	Screen:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "sequence screen")),
	Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:           key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}

// helpGroups returns the bindings shown in the help modal, grouped.
func (k keyMap) helpGroups() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Toggle, k.ToggleAll, k.ClearSelection},
		{k.Search, k.ClearSearch, k.Sort, k.Unsort},
		{k.PrevPage, k.NextPage, k.FirstPage, k.LastPage, k.Grow, k.Shrink, k.Mode},
		{k.Reload, k.Theme, k.Screen, k.Help, k.Quit},
	}
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.modal != modalNone {
		return m.handleModalKeys(msg)
	}
	if m.screen == screenSequence {
		return m.handleSequenceKeys(msg)
	}
	if m.searchActive {
		return m.handleInlineSearchKeys(msg)
	}
	return m.handleRosterKeys(msg)
}

func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalQuitConfirm:
		switch msg.String() {
		case "y", "Y", "enter":
			return m.quit()
		case "n", "N", "esc", "q":
			m.modal = modalNone
		}
	default:
		// Any key closes the help modal.
		m.modal = modalNone
	}
	return m, nil
}

// handleInlineSearchKeys handles keys when the inline search bar is active.
// The filter runs in memory, so every keystroke is applied immediately.
func (m Model) handleInlineSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchActive = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchActive = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m.applySearch("")

	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		next, sentinel := m.applySearch(m.searchInput.Value())
		return next, tea.Batch(cmd, sentinel)
	}
}

func (m Model) applySearch(term string) (tea.Model, tea.Cmd) {
	if term == m.snap.Params.SearchTerm {
		return m, nil
	}
	m.engine.SetSearchTerm(term)
	m.resetCursor()
	m.refresh()
	return m, m.checkSentinel()
}

// handleRosterKeys handles keys on the roster table.
func (m Model) handleRosterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.navigateList(msg.String(), len(m.snap.Visible)) {
		return m, m.checkSentinel()
	}

	k := rosterKeys
	switch {
	case key.Matches(msg, k.Quit):
		m.modal = modalQuitConfirm
		return m, nil

	case key.Matches(msg, k.Help):
		m.modal = modalHelp
		return m, nil

	case key.Matches(msg, k.Screen):
		return m.switchScreen()

	case key.Matches(msg, k.Search):
		m.searchActive = true
		m.searchInput.SetValue(m.snap.Params.SearchTerm)
		m.searchInput.CursorEnd()
		return m, tea.Batch(m.searchInput.Focus(), textinput.Blink)

	case key.Matches(msg, k.ClearSearch):
		if m.snap.Params.SearchTerm != "" {
			m.searchInput.SetValue("")
			return m.applySearch("")
		}
		return m, nil

	case key.Matches(msg, k.Sort):
		field := records.Fields[int(msg.String()[0]-'1')]
		m.engine.SetSort(field)
		return m.afterReslice()

	case key.Matches(msg, k.Unsort):
		m.engine.SetSort(records.FieldNone)
		return m.afterReslice()

	case key.Matches(msg, k.Grow):
		m.engine.SetPageSize(m.snap.Params.PageSize + pageSizeStep)
		return m.afterReslice()

	case key.Matches(msg, k.Shrink):
		if !m.engine.SetPageSize(m.snap.Params.PageSize - pageSizeStep) {
			return m.showFlash(fmt.Sprintf("Page size cannot go below %d", m.snap.Params.PageSize))
		}
		return m.afterReslice()

	case key.Matches(msg, k.Mode):
		mode := view.ModeCumulative
		if m.snap.Params.Mode == view.ModeCumulative {
			mode = view.ModePaged
		}
		m.engine.SetPaginationMode(mode)
		return m.afterReslice()

	case key.Matches(msg, k.PrevPage):
		return m.goToPage(m.snap.Params.Cursor - 1)

	case key.Matches(msg, k.NextPage):
		return m.goToPage(m.snap.Params.Cursor + 1)

	case key.Matches(msg, k.FirstPage):
		return m.goToPage(1)

	case key.Matches(msg, k.LastPage):
		return m.goToPage(m.snap.TotalPages)

	case key.Matches(msg, k.Toggle):
		if m.cursor < len(m.snap.Visible) {
			m.engine.ToggleSelection(m.snap.Visible[m.cursor].ID)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, k.ToggleAll):
		m.engine.ToggleAllSelection()
		m.refresh()
		return m, nil

	case key.Matches(msg, k.ClearSelection):
		if m.snap.SelectedCount > 0 {
			m.engine.ClearSelection()
			m.refresh()
			return m.showFlash("Selection cleared")
		}
		return m, nil

	case key.Matches(msg, k.Reload):
		return m.reload()

	case key.Matches(msg, k.Theme):
		m.theme = newTheme(!m.theme.dark)
		return m, nil
	}

	return m, nil
}

// afterReslice refreshes after a change that replaces the visible slice.
func (m Model) afterReslice() (tea.Model, tea.Cmd) {
	m.resetCursor()
	m.refresh()
	return m, m.checkSentinel()
}

func (m Model) goToPage(page int) (tea.Model, tea.Cmd) {
	if m.snap.Params.Mode != view.ModePaged {
		return m, nil
	}
	if !m.engine.GoToPage(page) {
		return m, nil
	}
	return m.afterReslice()
}

func (m Model) switchScreen() (tea.Model, tea.Cmd) {
	if m.screen == screenRoster {
		m.screen = screenSequence
		return m, m.seq.focusCurrent()
	}
	m.seq.blur()
	m.screen = screenRoster
	return m, m.checkSentinel()
}
