package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/testutil"
	"github.com/wesm/rosterview/internal/view"
)

// loadedEngine returns an engine over a 25-record roster, already loaded.
func loadedEngine(t *testing.T, opts view.Options) *view.Engine {
	t.Helper()
	e := view.NewEngine(records.Static(testutil.Roster(25)), opts)
	testutil.MustNoErr(t, e.Reload(context.Background()), "Reload")
	return e
}

// parseListFlags parses args into listCmd and restores the defaults when the
// test ends.
func parseListFlags(t *testing.T, args ...string) {
	t.Helper()
	t.Cleanup(func() {
		listCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	testutil.MustNoErr(t, listCmd.ParseFlags(args), "ParseFlags")
}

func TestApplyListFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantIDs []int64
	}{
		{"defaults", nil, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"page", []string{"--page", "3"}, []int64{21, 22, 23, 24, 25}},
		{"page size", []string{"-n", "4", "--page", "2"}, []int64{5, 6, 7, 8}},
		{"sort desc", []string{"--sort", "balance", "--desc", "-n", "3"}, []int64{25, 24, 23}},
		{"search", []string{"--search", "user 1", "-n", "20"}, []int64{1, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}},
		{"cumulative grow", []string{"--mode", "cumulative", "-n", "5", "--grow", "2"}, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseListFlags(t, tt.args...)
			e := loadedEngine(t, view.Options{PageSize: 10})
			testutil.MustNoErr(t, applyListFlags(listCmd, e), "applyListFlags")
			testutil.AssertIDs(t, e.Snapshot().Visible, tt.wantIDs...)
		})
	}
}

func TestApplyListFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"page out of range", []string{"--page", "9"}},
		{"page in cumulative mode", []string{"--mode", "cumulative", "--page", "2"}},
		{"bad mode", []string{"--mode", "sideways"}},
		{"bad sort", []string{"--sort", "shoe_size"}},
		{"zero page size", []string{"-n", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseListFlags(t, tt.args...)
			e := loadedEngine(t, view.Options{PageSize: 10})
			if err := applyListFlags(listCmd, e); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOutputViewPlain(t *testing.T) {
	e := loadedEngine(t, view.Options{PageSize: 2})
	var buf bytes.Buffer
	testutil.MustNoErr(t, outputViewPlain(&buf, e.Snapshot()), "outputViewPlain")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	testutil.AssertContainsAll(t, lines[0], []string{"ID", "Name", "Balance ($)", "Registration", "Status"})
	testutil.AssertContainsAll(t, lines[1], []string{"User 1", "$100", "user1@example.com", "01-02-2024", "Active"})
}

func TestOutputViewTable(t *testing.T) {
	e := loadedEngine(t, view.Options{PageSize: 3})
	var buf bytes.Buffer
	outputViewTable(&buf, e.Snapshot())

	out := buf.String()
	testutil.AssertContainsAll(t, out, []string{"╭", "Email", "User 3", "$300"})
}

func TestViewSummary(t *testing.T) {
	e := loadedEngine(t, view.Options{PageSize: 10})
	e.SetSort(records.FieldName)
	e.GoToPage(2)
	if got, want := viewSummary(e.Snapshot()), "page 2 of 3 · 25 records · sorted by name asc"; got != want {
		t.Errorf("viewSummary = %q, want %q", got, want)
	}

	e.SetPaginationMode(view.ModeCumulative)
	e.SetSearchTerm("pending")
	got := viewSummary(e.Snapshot())
	if !strings.HasPrefix(got, "showing 8 of 8") || !strings.Contains(got, `search "pending"`) {
		t.Errorf("viewSummary = %q", got)
	}
}

func TestOutputViewJSON(t *testing.T) {
	e := loadedEngine(t, view.Options{PageSize: 2})
	var buf bytes.Buffer
	testutil.MustNoErr(t, outputViewJSON(&buf, e.Snapshot()), "outputViewJSON")
	testutil.AssertContainsAll(t, buf.String(), []string{`"status": "ready"`, `"total_count": 25`, `"balance_display": "$200"`})
}
