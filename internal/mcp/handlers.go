package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wesm/rosterview/internal/api"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/view"
)

const maxPageSize = 1000

type handlers struct {
	provider records.Provider
	logger   *slog.Logger
	pageSize int
	mode     view.Mode

	mu     sync.Mutex // guards recs and loaded
	recs   []records.Record
	loaded bool
}

func newHandlers(provider records.Provider, opts Options) *handlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = view.DefaultPageSize
	}
	return &handlers{
		provider: provider,
		logger:   logger,
		pageSize: pageSize,
		mode:     opts.Mode,
	}
}

// records returns the roster, fetching it on first use or when refresh is
// set. A failed fetch leaves the previous roster in place.
func (h *handlers) records(ctx context.Context, refresh bool) ([]records.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded && !refresh {
		return h.recs, nil
	}
	st := view.NewStore(h.provider, h.logger)
	if err := st.Load(ctx); err != nil {
		return nil, err
	}
	h.recs = st.Records()
	h.loaded = true
	return h.recs, nil
}

// getIDArg extracts a required positive integer ID from the arguments map.
func getIDArg(args map[string]any, key string) (int64, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s parameter is required", key)
	}
	if v != math.Trunc(v) || v < 1 || v > math.MaxInt64 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return int64(v), nil
}

// intArg extracts an optional positive integer. JSON numbers arrive as
// float64. Values above max are clamped.
func intArg(args map[string]any, key string, def, max int) (int, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return def, nil
	}
	v, ok := raw.(float64)
	if !ok || math.IsNaN(v) || v != math.Trunc(v) || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	if v > float64(max) {
		return max, nil
	}
	return int(v), nil
}

func (h *handlers) queryRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	search, _ := args["search"].(string)

	sortName, _ := args["sort_key"].(string)
	key, err := records.ParseField(sortName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dir := view.Asc
	switch d, _ := args["direction"].(string); d {
	case "", "asc":
	case "desc":
		dir = view.Desc
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid direction: %s", d)), nil
	}

	mode := h.mode
	if m, _ := args["mode"].(string); m != "" {
		parsed, ok := view.ParseMode(m)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid mode: %s", m)), nil
		}
		mode = parsed
	}

	pageSize, err := intArg(args, "page_size", h.pageSize, maxPageSize)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := intArg(args, "page", 1, math.MaxInt32)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recs, err := h.records(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	engine := view.NewEngine(records.Static(recs), view.Options{
		PageSize:  pageSize,
		Mode:      mode,
		SortKey:   key,
		Direction: dir,
		Logger:    h.logger,
	})
	if err := engine.Reload(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	engine.SetSearchTerm(search)

	if page > 1 {
		switch mode {
		case view.ModePaged:
			if !engine.GoToPage(page) {
				snap := engine.Snapshot()
				return mcp.NewToolResultError(fmt.Sprintf("page %d out of range (%d pages)", page, snap.TotalPages)), nil
			}
		case view.ModeCumulative:
			for i := 1; i < page; i++ {
				if !engine.GrowOnSignal() {
					break
				}
			}
		}
	}

	return jsonResult(api.NewViewResponse(engine.Snapshot()))
}

func (h *handlers) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	id, err := getIDArg(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recs, err := h.records(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	for _, r := range recs {
		if r.ID == id {
			return jsonResult(api.NewRecordResponse(r, false))
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("record %d not found", id)), nil
}

// StatsResponse summarizes the loaded roster.
type StatsResponse struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	TotalBalance int64          `json:"total_balance"`
}

func (h *handlers) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := h.records(ctx, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	resp := StatsResponse{Total: len(recs), ByStatus: make(map[string]int, len(records.Statuses))}
	for _, st := range records.Statuses {
		resp.ByStatus[st.String()] = 0
	}
	for _, r := range recs {
		resp.ByStatus[r.Status.String()]++
		resp.TotalBalance += r.Balance
	}
	return jsonResult(resp)
}

func (h *handlers) reloadRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := h.records(ctx, true)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reload failed: %v", err)), nil
	}
	h.logger.Info("roster reloaded via MCP", "count", len(recs))
	return jsonResult(map[string]int{"count": len(recs)})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
