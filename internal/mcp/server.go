// Package mcp serves the roster view over the Model Context Protocol so
// assistants can page, search and sort records.
package mcp

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/view"
)

// Tool name constants.
const (
	ToolQueryRecords  = "query_records"
	ToolGetRecord     = "get_record"
	ToolGetStats      = "get_stats"
	ToolReloadRecords = "reload_records"
)

// Options configures the defaults applied to query_records.
type Options struct {
	PageSize int
	Mode     view.Mode
	Logger   *slog.Logger
}

func withPage() mcp.ToolOption {
	return mcp.WithNumber("page",
		mcp.Description("Page number starting at 1; in cumulative mode the number of pages revealed (default 1)"),
	)
}

func withPageSize(def int) mcp.ToolOption {
	return mcp.WithNumber("page_size",
		mcp.Description("Records per page (default "+strconv.Itoa(def)+")"),
	)
}

// NewServer creates an MCP server with the roster tools registered.
func NewServer(provider records.Provider, opts Options) *server.MCPServer {
	s := server.NewMCPServer(
		"rosterview",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	h := newHandlers(provider, opts)

	s.AddTool(queryRecordsTool(h.pageSize), h.queryRecords)
	s.AddTool(getRecordTool(), h.getRecord)
	s.AddTool(getStatsTool(), h.getStats)
	s.AddTool(reloadRecordsTool(), h.reloadRecords)
	return s
}

// Serve serves the roster tools over stdio. It blocks until stdin is closed
// or the context is cancelled.
func Serve(ctx context.Context, provider records.Provider, opts Options) error {
	stdio := server.NewStdioServer(NewServer(provider, opts))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func queryRecordsTool(defaultPageSize int) mcp.Tool {
	return mcp.NewTool(ToolQueryRecords,
		mcp.WithDescription("Query the user roster. Filters by a case-insensitive substring of name, email or status, sorts by a column and returns one page with totals."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("search",
			mcp.Description("Substring to match against name, email or status"),
		),
		mcp.WithString("sort_key",
			mcp.Description("Column to sort by"),
			mcp.Enum("none", "id", "name", "balance", "email", "registered_at", "status"),
		),
		mcp.WithString("direction",
			mcp.Description("Sort direction (default asc)"),
			mcp.Enum("asc", "desc"),
		),
		mcp.WithString("mode",
			mcp.Description("paged returns one page; cumulative returns every page up to page"),
			mcp.Enum("paged", "cumulative"),
		),
		withPage(),
		withPageSize(defaultPageSize),
	)
}

func getRecordTool() mcp.Tool {
	return mcp.NewTool(ToolGetRecord,
		mcp.WithDescription("Get one roster record by ID."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Record ID"),
		),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetStats,
		mcp.WithDescription("Get roster overview: record count, counts per status and total balance."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func reloadRecordsTool() mcp.Tool {
	return mcp.NewTool(ToolReloadRecords,
		mcp.WithDescription("Fetch the roster again from its source and report the new record count."),
	)
}
