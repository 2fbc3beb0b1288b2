// Package view implements the tabular data view engine: it derives the
// visible slice of a record set from search, sort and pagination parameters
// and keeps row selection consistent across those transformations.
//
// The engine is single-owner and synchronous. The only asynchronous boundary
// is the record fetch, which callers may run on another goroutine between
// BeginReload and CompleteReload.
package view

import (
	"context"
	"log/slog"
	"slices"

	"github.com/wesm/rosterview/internal/records"
)

// Options configures a new Engine.
type Options struct {
	PageSize  int
	Mode      Mode
	SortKey   records.Field
	Direction Direction
	Logger    *slog.Logger
}

// Snapshot is the read model handed to presentation layers.
type Snapshot struct {
	Status             LoadStatus
	Err                error
	Visible            []records.Record
	TotalCount         int
	TotalPages         int
	HasMore            bool
	Params             Params
	SelectedIDs        []int64
	SelectedCount      int
	AllVisibleSelected bool

	selected map[int64]struct{}
}

// IsSelected reports whether id was selected when the snapshot was taken.
func (s Snapshot) IsSelected(id int64) bool {
	_, ok := s.selected[id]
	return ok
}

// Engine composes the record store, filter, sorter, paginator and selection
// tracker. It is not safe for concurrent use.
type Engine struct {
	store  *Store
	sel    *Selection
	pager  Paginator
	logger *slog.Logger

	search  string
	sortKey records.Field
	dir     Direction

	memo filterMemo

	// Derived stages; a false *OK flag marks the stage stale.
	filtered   []records.Record
	sorted     []records.Record
	visible    []records.Record
	visibleIDs []int64
	sortOK     bool
	sliceOK    bool
	sortedGen  uint64
}

// NewEngine creates an engine over provider. Nothing is loaded until
// Reload or BeginReload is called.
func NewEngine(provider records.Provider, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:   NewStore(provider, logger),
		sel:     NewSelection(),
		pager:   NewPaginator(opts.Mode, opts.PageSize),
		logger:  logger,
		sortKey: opts.SortKey,
		dir:     opts.Direction,
	}
	e.recompute()
	return e
}

// Store exposes the underlying record store.
func (e *Engine) Store() *Store { return e.store }

// Params returns the current view parameters.
func (e *Engine) Params() Params {
	return Params{
		SearchTerm: e.search,
		SortKey:    e.sortKey,
		Direction:  e.dir,
		PageSize:   e.pager.PageSize,
		Mode:       e.pager.Mode,
		Cursor:     e.pager.Cursor,
	}
}

// Snapshot returns the current read model. The returned slices are copies.
func (e *Engine) Snapshot() Snapshot {
	ids := e.sel.IDs()
	selected := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	total := len(e.filtered)
	return Snapshot{
		Status:             e.store.Status(),
		Err:                e.store.Err(),
		Visible:            slices.Clone(e.visible),
		TotalCount:         total,
		TotalPages:         e.pager.TotalPages(total),
		HasMore:            e.pager.HasMore(total),
		Params:             e.Params(),
		SelectedIDs:        ids,
		SelectedCount:      len(ids),
		AllVisibleSelected: e.sel.AllSelected(e.visibleIDs),
		selected:           selected,
	}
}

// Visible returns the visible records without copying. Callers must not
// modify the slice.
func (e *Engine) Visible() []records.Record { return e.visible }

// SetSearchTerm changes the search term and returns to the first page.
func (e *Engine) SetSearchTerm(term string) {
	if term == e.search {
		return
	}
	e.search = term
	e.pager.Reset()
	e.sortOK = false
	e.sliceOK = false
	e.recompute()
}

// SetSort sorts by key. Re-selecting the current key flips the direction;
// a new key starts ascending.
func (e *Engine) SetSort(key records.Field) {
	if key == e.sortKey && key != records.FieldNone {
		e.dir = e.dir.Toggle()
	} else {
		e.sortKey = key
		e.dir = Asc
	}
	e.pager.Reset()
	e.sortOK = false
	e.sliceOK = false
	e.recompute()
}

// SetSortDirection sets key and direction explicitly.
func (e *Engine) SetSortDirection(key records.Field, dir Direction) {
	if key == e.sortKey && dir == e.dir {
		return
	}
	e.sortKey = key
	e.dir = dir
	e.pager.Reset()
	e.sortOK = false
	e.sliceOK = false
	e.recompute()
}

// SetPageSize changes the page size. Non-positive sizes are rejected.
func (e *Engine) SetPageSize(n int) bool {
	if !e.pager.SetPageSize(n) {
		return false
	}
	e.sliceOK = false
	e.recompute()
	return true
}

// SetPaginationMode switches between paged and cumulative pagination.
func (e *Engine) SetPaginationMode(m Mode) {
	if m == e.pager.Mode {
		return
	}
	e.pager.SetMode(m)
	e.sliceOK = false
	e.recompute()
}

// GoToPage jumps to page in ModePaged. Out-of-range pages and calls in
// ModeCumulative are rejected.
func (e *Engine) GoToPage(page int) bool {
	if e.pager.Mode != ModePaged {
		return false
	}
	if !e.pager.GoTo(page, e.pager.TotalPages(len(e.filtered))) {
		return false
	}
	e.sliceOK = false
	e.recompute()
	return true
}

// NextPage advances one page in ModePaged.
func (e *Engine) NextPage() bool { return e.GoToPage(e.pager.Cursor + 1) }

// PrevPage goes back one page in ModePaged.
func (e *Engine) PrevPage() bool { return e.GoToPage(e.pager.Cursor - 1) }

// GrowOnSignal reveals one more page when the end-of-list sentinel becomes
// visible. It is a no-op unless the engine is in ModeCumulative, the store
// is ready and more records remain.
func (e *Engine) GrowOnSignal() bool {
	if e.store.Status() != LoadReady {
		return false
	}
	if !e.pager.Grow(len(e.filtered)) {
		return false
	}
	e.logger.Debug("cumulative view grew", "pages", e.pager.Cursor)
	e.sliceOK = false
	e.recompute()
	return true
}

// ToggleSelection flips the selection of id. IDs not in the store are
// ignored.
func (e *Engine) ToggleSelection(id int64) bool {
	if !e.store.Has(id) {
		return false
	}
	e.sel.Toggle(id)
	return true
}

// ToggleAllSelection selects every visible record, or deselects them when
// all are already selected.
func (e *Engine) ToggleAllSelection() {
	e.sel.ToggleAll(e.visibleIDs)
}

// ClearSelection deselects everything.
func (e *Engine) ClearSelection() {
	e.sel.Clear()
}

// BeginReload starts a load cycle and returns its ticket. The selection is
// kept until the cycle resolves and the store is replaced.
func (e *Engine) BeginReload() Ticket {
	t := e.store.Begin()
	e.recompute()
	return t
}

// Fetch calls the record provider. It may run on any goroutine.
func (e *Engine) Fetch(ctx context.Context) ([]records.Record, error) {
	return e.store.Fetch(ctx)
}

// CompleteReload applies a fetch result, replacing the store and clearing
// the selection. Results for superseded tickets are dropped and false is
// returned.
func (e *Engine) CompleteReload(t Ticket, recs []records.Record, err error) bool {
	if !e.store.Complete(t, recs, err) {
		return false
	}
	e.sel.Clear()
	e.recompute()
	return true
}

// Reload runs a whole load cycle on the calling goroutine and returns the
// *LoadError on failure.
func (e *Engine) Reload(ctx context.Context) error {
	t := e.BeginReload()
	recs, err := e.Fetch(ctx)
	e.CompleteReload(t, recs, err)
	return e.store.Err()
}

// recompute rebuilds the stale derived stages.
func (e *Engine) recompute() {
	gen := e.store.Generation()
	if gen != e.sortedGen {
		e.sortOK = false
		e.sliceOK = false
	}

	filtered := e.memo.get(gen, e.store.Records(), e.search)
	if !sameSlice(filtered, e.filtered) {
		e.filtered = filtered
		e.sortOK = false
		e.sliceOK = false
	}

	if !e.sortOK {
		e.sorted = Sort(e.filtered, e.sortKey, e.dir)
		e.sortedGen = gen
		e.sortOK = true
		e.sliceOK = false
	}

	if !e.sliceOK {
		e.pager.Clamp(len(e.sorted))
		start, end := e.pager.Window(len(e.sorted))
		e.visible = e.sorted[start:end:end]
		e.visibleIDs = e.visibleIDs[:0]
		for _, r := range e.visible {
			e.visibleIDs = append(e.visibleIDs, r.ID)
		}
		e.sliceOK = true
	}
}

// sameSlice reports whether a and b share the same backing array and length.
func sameSlice(a, b []records.Record) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
