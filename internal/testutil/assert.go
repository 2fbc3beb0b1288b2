package testutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/wesm/rosterview/internal/records"
)

// AssertIDs checks that recs holds exactly the given record IDs, in order.
// No want arguments means recs must be empty.
func AssertIDs(t *testing.T, recs []records.Record, want ...int64) {
	t.Helper()
	if diff := cmp.Diff(want, IDs(recs), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("record IDs mismatch (-want +got):\n%s", diff)
	}
}

// AssertStrings compares lines of output, quoting each side on mismatch so
// tabs and trailing spaces are visible.
func AssertStrings(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got %d lines, want %d: %q", len(got), len(want), got)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func AssertValidUTF8(t *testing.T, s string) {
	t.Helper()
	if !utf8.ValidString(s) {
		t.Errorf("not valid UTF-8: %q", s)
	}
}

// AssertContainsAll fails once per missing substring, so a broken render
// reports every absent cell at once.
func AssertContainsAll(t *testing.T, got string, subs []string) {
	t.Helper()
	var missing []string
	for _, sub := range subs {
		if !strings.Contains(got, sub) {
			missing = append(missing, sub)
		}
	}
	if len(missing) > 0 {
		t.Errorf("output is missing %q:\n%s", missing, got)
	}
}

// MustNoErr stops the test when a setup step fails.
func MustNoErr(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
