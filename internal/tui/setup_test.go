package tui

import (
	"context"
	"regexp"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/testutil"
	"github.com/wesm/rosterview/internal/view"
)

// ansiStart is the escape sequence prefix found in styled terminal output.
const ansiStart = "\x1b["

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that assert
// on styled output. It acquires colorProfileMu to prevent data races with
// parallel tests and restores the original profile via t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// =============================================================================
// Test Fixtures
// =============================================================================

// TestModelBuilder helps construct Model instances for testing.
type TestModelBuilder struct {
	recs     []records.Record
	provider records.Provider
	opts     Options
	width    int
	height   int
	noLoad   bool
}

// NewBuilder returns a builder for a 120x30 model over a 25-record roster.
func NewBuilder() *TestModelBuilder {
	return &TestModelBuilder{
		recs:   testutil.Roster(25),
		opts:   Options{PageSize: 10, Theme: ThemeDark},
		width:  120,
		height: 30,
	}
}

func (b *TestModelBuilder) WithRecords(recs ...records.Record) *TestModelBuilder {
	b.recs = recs
	return b
}

func (b *TestModelBuilder) WithRoster(n int) *TestModelBuilder {
	b.recs = testutil.Roster(n)
	return b
}

// WithProvider replaces the static roster with a custom provider.
func (b *TestModelBuilder) WithProvider(p records.Provider) *TestModelBuilder {
	b.provider = p
	return b
}

func (b *TestModelBuilder) WithSize(width, height int) *TestModelBuilder {
	b.width = width
	b.height = height
	return b
}

func (b *TestModelBuilder) WithPageSize(size int) *TestModelBuilder {
	b.opts.PageSize = size
	return b
}

func (b *TestModelBuilder) WithMode(mode view.Mode) *TestModelBuilder {
	b.opts.Mode = mode
	return b
}

func (b *TestModelBuilder) WithTheme(name string) *TestModelBuilder {
	b.opts.Theme = name
	return b
}

// WithoutLoad leaves the model in its initial loading state.
func (b *TestModelBuilder) WithoutLoad() *TestModelBuilder {
	b.noLoad = true
	return b
}

// Build creates the model, applies the window size and, unless WithoutLoad
// was used, runs the initial fetch synchronously.
func (b *TestModelBuilder) Build(t *testing.T) Model {
	t.Helper()
	provider := b.provider
	if provider == nil {
		provider = records.Static(b.recs)
	}
	m := New(provider, b.opts)
	t.Cleanup(m.cancel)

	m = applyMsg(m, tea.WindowSizeMsg{Width: b.width, Height: b.height})
	if b.noLoad {
		return m
	}
	return loadNow(m)
}

// loadNow runs the pending fetch on the test goroutine and applies it.
func loadNow(m Model) Model {
	m = applyMsg(m, m.loadRecords(m.ticket)())
	return settle(m)
}

// settle applies sentinel checks until the cumulative view stops growing.
func settle(m Model) Model {
	for i := 0; i < 1000 && m.sentinelVisible(); i++ {
		m = applyMsg(m, sentinelCheckMsg{})
	}
	return m
}

// =============================================================================
// Message helpers
// =============================================================================

func applyMsg(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// sendKey applies a key and then settles any sentinel growth it triggered.
func sendKey(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return settle(nm), cmd
}

// typeText sends each rune of s as a separate key press.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = sendKey(t, m, keyRune(r))
	}
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func keyEnter() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeyEnter} }
func keyEsc() tea.KeyMsg    { return tea.KeyMsg{Type: tea.KeyEscape} }
func keyTab() tea.KeyMsg    { return tea.KeyMsg{Type: tea.KeyTab} }
func keyDown() tea.KeyMsg   { return tea.KeyMsg{Type: tea.KeyDown} }
func keyUp() tea.KeyMsg     { return tea.KeyMsg{Type: tea.KeyUp} }
func keyEnd() tea.KeyMsg    { return tea.KeyMsg{Type: tea.KeyEnd} }
func keySpace() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}} }
func keyCtrlC() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeyCtrlC} }
func keyRight() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeyRight} }
func keyPgDown() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyPgDown} }

// failingProvider fails every fetch with err.
func failingProvider(err error) records.Provider {
	return records.ProviderFunc(func(context.Context) ([]records.Record, error) {
		return nil, err
	})
}

func visibleIDs(m Model) []int64 {
	return testutil.IDs(m.snap.Visible)
}
