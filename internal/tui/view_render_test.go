package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/testutil"
	"github.com/wesm/rosterview/internal/textutil"
	"github.com/wesm/rosterview/internal/view"
)

// TestRosterViewFillsScreen verifies the roster view renders exactly one line
// per terminal row and never overflows the width.
func TestRosterViewFillsScreen(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		mode   view.Mode
		load   bool
	}{
		{"paged", 120, 30, view.ModePaged, true},
		{"cumulative", 120, 30, view.ModeCumulative, true},
		{"short terminal", 100, 12, view.ModePaged, true},
		{"loading", 120, 30, view.ModePaged, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder().WithRoster(60).WithSize(tt.width, tt.height).WithMode(tt.mode)
			if !tt.load {
				b = b.WithoutLoad()
			}
			m := b.Build(t)

			lines := strings.Split(m.View(), "\n")
			if len(lines) != tt.height {
				t.Errorf("got %d lines, want %d", len(lines), tt.height)
			}
			for i, line := range lines {
				if w := lipgloss.Width(line); w > tt.width {
					t.Errorf("line %d is %d cells wide, limit %d: %q", i, w, tt.width, stripANSI(line))
				}
			}
		})
	}
}

func TestRecordRowContent(t *testing.T) {
	m := NewBuilder().Build(t)
	out := stripANSI(m.View())

	testutil.AssertContainsAll(t, out, []string{
		"Name", "Balance ($)", "Email", "Registration", "Status", "Action",
		"User 1", "$100", "user1@example.com", "01-02-2024", "Active",
		"25 results",
	})
}

func TestBalanceGrouping(t *testing.T) {
	rec := testutil.NewRecord(1).WithBalance(1234567).Build()
	m := NewBuilder().WithRecords(rec).Build(t)
	if out := stripANSI(m.View()); !strings.Contains(out, "$1,234,567") {
		t.Errorf("balance not grouped:\n%s", out)
	}
}

func TestSortIndicatorInHeader(t *testing.T) {
	m := NewBuilder().Build(t)
	m, _ = sendKey(t, m, keyRune('1'))
	if got := stripANSI(m.tableHeader()); !strings.Contains(got, "Name↑") {
		t.Errorf("header missing ascending indicator: %q", got)
	}
	m, _ = sendKey(t, m, keyRune('1'))
	if got := stripANSI(m.tableHeader()); !strings.Contains(got, "Name↓") {
		t.Errorf("header missing descending indicator: %q", got)
	}
}

func TestHeaderSelectionMark(t *testing.T) {
	m := NewBuilder().Build(t)
	if got := stripANSI(m.tableHeader()); !strings.HasPrefix(got, "[ ]") {
		t.Errorf("empty selection header = %q", got)
	}
	m, _ = sendKey(t, m, keySpace())
	if got := stripANSI(m.tableHeader()); !strings.HasPrefix(got, "[-]") {
		t.Errorf("partial selection header = %q", got)
	}
	m, _ = sendKey(t, m, keyRune('a'))
	if got := stripANSI(m.tableHeader()); !strings.HasPrefix(got, "[x]") {
		t.Errorf("full selection header = %q", got)
	}
}

func TestPaginationBar(t *testing.T) {
	tests := []struct {
		name    string
		roster  int
		keys    []rune
		want    []string
		missing []string
	}{
		{
			name:   "few pages lists all",
			roster: 25,
			want:   []string{"‹ 1 2 3 ›", "page 1 of 3"},
		},
		{
			name:    "many pages uses ellipsis",
			roster:  100,
			want:    []string{"1 2 3 … 9 10", "page 1 of 10"},
			missing: []string{" 5 "},
		},
		{
			name:   "current page inside the gap",
			roster: 100,
			keys:   []rune{'l', 'l', 'l', 'l', 'l'},
			want:   []string{"1 2 3 … 6 … 9 10", "page 6 of 10"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewBuilder().WithRoster(tt.roster).Build(t)
			for _, r := range tt.keys {
				m, _ = sendKey(t, m, keyRune(r))
			}
			got := stripANSI(m.paginationView())
			// The current page is padded for highlighting.
			got = strings.ReplaceAll(got, "  ", " ")
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("pagination %q missing %q", got, w)
				}
			}
			for _, w := range tt.missing {
				if strings.Contains(got, w) {
					t.Errorf("pagination %q should not contain %q", got, w)
				}
			}
		})
	}
}

func TestPaginationShowsCursorTimestamp(t *testing.T) {
	m := NewBuilder().Build(t)
	m, _ = sendKey(t, m, keyDown())
	want := textutil.FormatTimestamp(m.snap.Visible[1].RegisteredAt.Local())
	if got := stripANSI(m.paginationView()); !strings.Contains(got, "registered "+want) {
		t.Errorf("pagination %q missing timestamp %q", got, want)
	}
}

func TestCumulativeSentinelRow(t *testing.T) {
	m := NewBuilder().WithRoster(100).WithSize(120, 12).WithMode(view.ModeCumulative).Build(t)
	// Apply the key without settling so the sentinel is still on screen.
	m = applyMsg(m, keyEnd())
	if !m.sentinelVisible() {
		t.Fatal("end should scroll the sentinel into view")
	}

	out := stripANSI(m.View())
	if !strings.Contains(out, "loading more") {
		t.Errorf("sentinel row not rendered:\n%s", out)
	}
	if !strings.Contains(out, "scroll for more") {
		t.Errorf("cumulative status missing:\n%s", out)
	}
}

func TestEmptySearchResult(t *testing.T) {
	m := NewBuilder().Build(t)
	m, _ = sendKey(t, m, keyRune('/'))
	m = typeText(t, m, "zzz")
	out := stripANSI(m.View())
	testutil.AssertContainsAll(t, out, []string{`No records match "zzz"`, "0 results"})
}

func TestStatusBadgeStyles(t *testing.T) {
	forceColorProfile(t)
	th := newTheme(true)

	seen := make(map[string]records.Status)
	for _, s := range records.Statuses {
		out := th.statusBadge(s, statusWidth)
		if !strings.Contains(out, ansiStart) {
			t.Errorf("%v badge has no styling: %q", s, out)
		}
		if !strings.Contains(stripANSI(out), s.String()) {
			t.Errorf("%v badge missing label: %q", s, out)
		}
		if prev, dup := seen[out]; dup {
			t.Errorf("%v and %v render identically", prev, s)
		}
		seen[out] = s
		if w := lipgloss.Width(out); w != statusWidth {
			t.Errorf("%v badge width = %d, want %d", s, w, statusWidth)
		}
	}

	unknown := th.statusBadge(records.Status(42), statusWidth)
	if !strings.Contains(stripANSI(unknown), "Unknown") {
		t.Errorf("unknown status badge = %q", unknown)
	}
}

func TestThemesDiffer(t *testing.T) {
	forceColorProfile(t)
	dark := newTheme(true).normalRow.Render("x")
	light := newTheme(false).normalRow.Render("x")
	if dark == light {
		t.Error("dark and light rows render identically")
	}
}

func TestFlashInInfoLine(t *testing.T) {
	m := NewBuilder().Build(t)
	next, _ := m.showFlash("hello there")
	m = next.(Model)
	if got := stripANSI(m.renderInfoLine()); !strings.Contains(got, "hello there") {
		t.Errorf("info line %q missing flash", got)
	}
	m.flashExpiresAt = m.flashExpiresAt.Add(-2 * flashDuration)
	m = applyMsg(m, flashClearMsg{})
	if m.flashMessage != "" {
		t.Errorf("flash not cleared: %q", m.flashMessage)
	}
}
