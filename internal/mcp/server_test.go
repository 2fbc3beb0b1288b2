package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wesm/rosterview/internal/api"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/testutil"
	"github.com/wesm/rosterview/internal/view"
)

// toolHandler is the function signature for MCP tool handler methods.
type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// callToolDirect invokes a handler directly with the given arguments and returns the raw result.
func callToolDirect(t *testing.T, name string, fn toolHandler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("empty content")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", r.Content[0])
	}
	return tc.Text
}

// runTool invokes a handler, asserts no error, and unmarshals the JSON result into T.
func runTool[T any](t *testing.T, name string, fn toolHandler, args map[string]any) T {
	t.Helper()
	r := callToolDirect(t, name, fn, args)
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, r))
	}
	var out T
	if err := json.Unmarshal([]byte(resultText(t, r)), &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return out
}

// runToolExpectError invokes a handler and asserts it returns an error result.
func runToolExpectError(t *testing.T, name string, fn toolHandler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	r := callToolDirect(t, name, fn, args)
	if !r.IsError {
		t.Fatal("expected error result")
	}
	return r
}

func newTestHandlers(recs []records.Record) *handlers {
	return newHandlers(records.Static(recs), Options{PageSize: 10})
}

func viewIDs(v api.ViewResponse) []int64 {
	ids := make([]int64, len(v.Records))
	for i, r := range v.Records {
		ids[i] = r.ID
	}
	return ids
}

func TestQueryRecords(t *testing.T) {
	h := newTestHandlers(testutil.Roster(25))

	tests := []struct {
		name      string
		args      map[string]any
		wantIDs   []int64
		wantTotal int
		wantPages int
	}{
		{
			name:      "defaults",
			args:      map[string]any{},
			wantIDs:   []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			wantTotal: 25,
			wantPages: 3,
		},
		{
			name:      "last page",
			args:      map[string]any{"page": float64(3)},
			wantIDs:   []int64{21, 22, 23, 24, 25},
			wantTotal: 25,
			wantPages: 3,
		},
		{
			name:      "search and sort desc",
			args:      map[string]any{"search": "pending", "sort_key": "balance", "direction": "desc", "page_size": float64(3)},
			wantIDs:   []int64{24, 21, 18},
			wantTotal: 8,
			wantPages: 3,
		},
		{
			name:      "cumulative pages",
			args:      map[string]any{"mode": "cumulative", "page": float64(2), "page_size": float64(4)},
			wantIDs:   []int64{1, 2, 3, 4, 5, 6, 7, 8},
			wantTotal: 25,
			wantPages: 7,
		},
		{
			name:      "cumulative beyond the end",
			args:      map[string]any{"mode": "cumulative", "page": float64(40), "search": "user 1"},
			wantIDs:   []int64{1, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19},
			wantTotal: 11,
			wantPages: 2,
		},
		{
			name:      "no matches",
			args:      map[string]any{"search": "nobody"},
			wantIDs:   []int64{},
			wantTotal: 0,
			wantPages: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runTool[api.ViewResponse](t, ToolQueryRecords, h.queryRecords, tt.args)
			if diff := cmp.Diff(tt.wantIDs, viewIDs(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if got.TotalCount != tt.wantTotal || got.TotalPages != tt.wantPages {
				t.Errorf("total=%d pages=%d, want %d/%d", got.TotalCount, got.TotalPages, tt.wantTotal, tt.wantPages)
			}
			if got.Status != "ready" {
				t.Errorf("status = %q, want ready", got.Status)
			}
		})
	}
}

func TestQueryRecordsInvalidArgs(t *testing.T) {
	h := newTestHandlers(testutil.Roster(25))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown sort key", map[string]any{"sort_key": "shoe_size"}},
		{"bad direction", map[string]any{"direction": "up"}},
		{"bad mode", map[string]any{"mode": "carousel"}},
		{"zero page size", map[string]any{"page_size": float64(0)}},
		{"fractional page", map[string]any{"page": 1.5}},
		{"page out of range", map[string]any{"page": float64(4)}},
		{"string page", map[string]any{"page": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runToolExpectError(t, ToolQueryRecords, h.queryRecords, tt.args)
		})
	}
}

func TestGetRecord(t *testing.T) {
	h := newTestHandlers([]records.Record{
		testutil.NewRecord(42).WithName("Ada Lovelace").WithBalance(1234567).Build(),
	})

	t.Run("found", func(t *testing.T) {
		rec := runTool[api.RecordResponse](t, ToolGetRecord, h.getRecord, map[string]any{"id": float64(42)})
		if rec.Name != "Ada Lovelace" || rec.BalanceDisplay != "$1,234,567" {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("not found", func(t *testing.T) {
		r := runToolExpectError(t, ToolGetRecord, h.getRecord, map[string]any{"id": float64(7)})
		if !strings.Contains(resultText(t, r), "not found") {
			t.Errorf("unexpected message: %s", resultText(t, r))
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		for _, v := range []any{nil, "42", float64(0), 1.5, float64(-3)} {
			runToolExpectError(t, ToolGetRecord, h.getRecord, map[string]any{"id": v})
		}
	})
}

func TestGetStats(t *testing.T) {
	h := newTestHandlers(testutil.Roster(5))

	got := runTool[StatsResponse](t, ToolGetStats, h.getStats, nil)
	want := StatsResponse{
		Total:        5,
		ByStatus:     map[string]int{"Active": 2, "Inactive": 2, "Pending": 1},
		TotalBalance: 1500,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordsCachedUntilReload(t *testing.T) {
	var calls atomic.Int32
	h := newHandlers(records.ProviderFunc(func(ctx context.Context) ([]records.Record, error) {
		n := calls.Add(1)
		return testutil.Roster(int(n) * 2), nil
	}), Options{})

	first := runTool[StatsResponse](t, ToolGetStats, h.getStats, nil)
	second := runTool[StatsResponse](t, ToolGetStats, h.getStats, nil)
	if first.Total != 2 || second.Total != 2 || calls.Load() != 1 {
		t.Fatalf("totals %d/%d after %d fetches, want cached 2/2 after 1", first.Total, second.Total, calls.Load())
	}

	reloaded := runTool[map[string]int](t, ToolReloadRecords, h.reloadRecords, nil)
	if reloaded["count"] != 4 {
		t.Errorf("reload count = %d, want 4", reloaded["count"])
	}
	if got := runTool[StatsResponse](t, ToolGetStats, h.getStats, nil); got.Total != 4 {
		t.Errorf("total after reload = %d, want 4", got.Total)
	}
}

func TestLoadFailureIsToolError(t *testing.T) {
	h := newHandlers(records.ProviderFunc(func(ctx context.Context) ([]records.Record, error) {
		return nil, errors.New("upstream unavailable")
	}), Options{})

	r := runToolExpectError(t, ToolQueryRecords, h.queryRecords, nil)
	if !strings.Contains(resultText(t, r), "upstream unavailable") {
		t.Errorf("unexpected message: %s", resultText(t, r))
	}
	runToolExpectError(t, ToolReloadRecords, h.reloadRecords, nil)
}

func TestDuplicateIDsRejected(t *testing.T) {
	recs := []records.Record{testutil.NewRecord(1).Build(), testutil.NewRecord(1).Build()}
	h := newTestHandlers(recs)

	r := runToolExpectError(t, ToolGetStats, h.getStats, nil)
	if !strings.Contains(resultText(t, r), "duplicate") {
		t.Errorf("unexpected message: %s", resultText(t, r))
	}
}

func TestDefaultsFromOptions(t *testing.T) {
	h := newHandlers(records.Static(testutil.Roster(30)), Options{PageSize: 7, Mode: view.ModeCumulative})

	got := runTool[api.ViewResponse](t, ToolQueryRecords, h.queryRecords, map[string]any{"page": float64(2)})
	if got.Params.PageSize != 7 || got.Params.Mode != "cumulative" || len(got.Records) != 14 {
		t.Errorf("size=%d mode=%s rows=%d, want 7/cumulative/14", got.Params.PageSize, got.Params.Mode, len(got.Records))
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		val     any
		want    int
		wantErr bool
	}{
		{"absent uses default", nil, 20, false},
		{"normal value", float64(50), 50, false},
		{"above max clamped", float64(5000), maxPageSize, false},
		{"Inf clamped", math.Inf(1), maxPageSize, false},
		{"zero", float64(0), 0, true},
		{"negative", float64(-5), 0, true},
		{"NaN", math.NaN(), 0, true},
		{"fraction", 2.5, 0, true},
		{"string", "3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			if tt.val != nil {
				args["x"] = tt.val
			}
			got, err := intArg(args, "x", 20, maxPageSize)
			if (err != nil) != tt.wantErr {
				t.Fatalf("intArg(%v) error = %v, wantErr %v", tt.val, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("intArg(%v) = %d, want %d", tt.val, got, tt.want)
			}
		})
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(records.Static(nil), Options{})
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	for _, name := range []string{ToolQueryRecords, ToolGetRecord, ToolGetStats, ToolReloadRecords} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("tool %s not listed in %s", name, data)
		}
	}
}
