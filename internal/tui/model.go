// Package tui provides the terminal interface for browsing a roster and
// running number sequences.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/view"
)

// screen identifies the top-level screen.
type screen int

const (
	screenRoster screen = iota
	screenSequence
)

// modalType identifies the active modal dialog.
type modalType int

const (
	modalNone modalType = iota
	modalHelp
	modalQuitConfirm
)

// Theme names accepted by Options.Theme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Options configures the TUI model.
type Options struct {
	PageSize      int
	Mode          view.Mode
	SortKey       records.Field
	Direction     view.Direction
	SequenceDelay time.Duration
	Theme         string // auto, dark or light
	Version       string
	Logger        *slog.Logger
}

// Model is the bubbletea model for the TUI.
type Model struct {
	engine  *view.Engine
	snap    view.Snapshot
	ticket  view.Ticket
	logger  *slog.Logger
	version string

	// ctx is cancelled when the program quits so in-flight fetches and
	// sequence runs stop.
	ctx    context.Context
	cancel context.CancelFunc

	screen screen
	modal  modalType

	// Roster table state
	cursor       int
	scrollOffset int

	// Inline search
	searchActive bool
	searchInput  textinput.Model

	seq sequenceModel

	theme theme

	// Spinner state
	spinnerFrame  int
	spinnerActive bool

	// Flash message for temporary notifications
	flashMessage   string
	flashExpiresAt time.Time

	width    int
	height   int
	quitting bool
}

// New creates a model over provider and starts the first load cycle.
// The fetch itself runs once the program calls Init.
func New(provider records.Provider, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := view.NewEngine(provider, view.Options{
		PageSize:  opts.PageSize,
		Mode:      opts.Mode,
		SortKey:   opts.SortKey,
		Direction: opts.Direction,
		Logger:    logger,
	})

	ti := textinput.New()
	ti.Placeholder = "name, email or status"
	ti.CharLimit = 200
	ti.Prompt = "/"

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		engine:        engine,
		logger:        logger,
		version:       opts.Version,
		ctx:           ctx,
		cancel:        cancel,
		searchInput:   ti,
		seq:           newSequenceModel(opts.SequenceDelay),
		theme:         newTheme(resolveDark(opts.Theme)),
		spinnerActive: true,
	}
	m.ticket = engine.BeginReload()
	m.refresh()
	return m
}

func resolveDark(name string) bool {
	switch name {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	default:
		return lipgloss.HasDarkBackground()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadRecords(m.ticket),
		spinnerTick(),
	)
}

// recordsLoadedMsg carries the result of one fetch.
type recordsLoadedMsg struct {
	ticket view.Ticket
	recs   []records.Record
	err    error
}

// flashClearMsg clears the flash message after timeout.
type flashClearMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

// sentinelCheckMsg asks the model to grow a cumulative view if the
// end-of-list row is on screen.
type sentinelCheckMsg struct{}

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is how fast the spinner animates.
const spinnerInterval = 80 * time.Millisecond

// flashDuration is how long flash messages are displayed.
const flashDuration = 4 * time.Second

// loadRecords fetches the roster off the UI goroutine. Only Fetch runs
// there; the result is applied in Update.
func (m Model) loadRecords(t view.Ticket) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = recordsLoadedMsg{ticket: t, err: fmt.Errorf("load records panic: %v", r)}
			}
		}()
		recs, err := engine.Fetch(ctx)
		return recordsLoadedMsg{ticket: t, recs: recs, err: err}
	}
}

// spinnerTick returns a command that fires a spinnerTickMsg after the spinner interval.
func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startSpinner returns a spinnerTick command if the spinner isn't already active,
// and marks it as active. Call this when loading begins.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	m.spinnerFrame = 0
	return spinnerTick()
}

func (m Model) busy() bool {
	return m.snap.Status == view.LoadLoading || m.seq.running
}

// showFlash displays a temporary message.
func (m Model) showFlash(text string) (tea.Model, tea.Cmd) {
	m.flashMessage = text
	m.flashExpiresAt = time.Now().Add(flashDuration)
	return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.searchInput.Width = max(10, m.width-20)
		m.seq.resize(m.width)
		m.ensureCursorVisible()
		return m, m.checkSentinel()

	case recordsLoadedMsg:
		if !m.engine.CompleteReload(msg.ticket, msg.recs, msg.err) {
			return m, nil
		}
		m.refresh()
		if msg.err != nil {
			m.logger.Warn("roster load failed", "error", msg.err)
		}
		return m, m.checkSentinel()

	case sentinelCheckMsg:
		if m.sentinelVisible() && m.engine.GrowOnSignal() {
			m.refresh()
			return m, m.checkSentinel()
		}
		return m, nil

	case sequenceEventMsg:
		return m.handleSequenceEvent(msg)

	case flashClearMsg:
		// Clear flash message if it hasn't been updated since the timer started
		if time.Now().After(m.flashExpiresAt) || m.flashExpiresAt.IsZero() {
			m.flashMessage = ""
		}
		return m, nil

	case spinnerTickMsg:
		if m.busy() {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
			return m, spinnerTick()
		}
		m.spinnerActive = false
		return m, nil
	}

	// Cursor blink and other input-internal messages.
	if m.screen == screenSequence {
		return m.updateSequenceInputs(msg)
	}
	if m.searchActive {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh re-reads the engine snapshot and keeps the cursor on a row.
func (m *Model) refresh() {
	m.snap = m.engine.Snapshot()
	if n := len(m.snap.Visible); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	m.ensureCursorVisible()
}

// resetCursor moves back to the top of the table. Used whenever the
// visible slice is replaced rather than extended.
func (m *Model) resetCursor() {
	m.cursor = 0
	m.scrollOffset = 0
}

// reload starts a new load cycle. The previous records, error and
// selection are dropped until the fetch completes.
func (m Model) reload() (tea.Model, tea.Cmd) {
	m.ticket = m.engine.BeginReload()
	m.resetCursor()
	m.refresh()
	spinCmd := m.startSpinner()
	return m, tea.Batch(spinCmd, m.loadRecords(m.ticket))
}

// quit cancels background work and exits.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.seq.stop()
	m.cancel()
	return m, tea.Quit
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	var out string
	switch m.screen {
	case screenSequence:
		out = m.sequenceView()
	default:
		out = fmt.Sprintf("%s\n%s\n%s\n%s",
			m.headerView(),
			m.tableView(),
			m.paginationView(),
			m.footerView(),
		)
	}
	if m.modal != modalNone {
		return m.overlayModal(out)
	}
	return out
}
