package view

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLoadedEngine returns an engine already holding recs.
func newLoadedEngine(t *testing.T, recs []records.Record, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	e := NewEngine(records.Static(recs), opts)
	testutil.MustNoErr(t, e.Reload(context.Background()), "Reload")
	return e
}

func visibleIDs(e *Engine) []int64 {
	return testutil.IDs(e.Visible())
}
