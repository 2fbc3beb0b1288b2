package view

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/testutil"
)

func TestEngine_PagedScenario(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10})

	snap := e.Snapshot()
	if snap.TotalPages != 3 || snap.TotalCount != 25 || len(snap.Visible) != 10 {
		t.Fatalf("pages=%d total=%d visible=%d, want 3/25/10", snap.TotalPages, snap.TotalCount, len(snap.Visible))
	}
	if snap.HasMore {
		t.Error("HasMore should be false in paged mode")
	}

	if !e.GoToPage(3) {
		t.Fatal("GoToPage(3) rejected")
	}
	if got := len(e.Visible()); got != 5 {
		t.Errorf("page 3 visible = %d, want 5", got)
	}
	if e.GoToPage(4) {
		t.Error("GoToPage(4) should be rejected")
	}
	if got := e.Params().Cursor; got != 3 {
		t.Errorf("cursor = %d, want 3", got)
	}
	if diff := cmp.Diff([]int64{21, 22, 23, 24, 25}, visibleIDs(e)); diff != "" {
		t.Errorf("page 3 mismatch (-want +got):\n%s", diff)
	}

	if !e.PrevPage() || e.Params().Cursor != 2 {
		t.Errorf("PrevPage: cursor = %d, want 2", e.Params().Cursor)
	}
	if !e.NextPage() || e.NextPage() {
		t.Error("NextPage should succeed once then stop at the last page")
	}
}

func TestEngine_CumulativeScenario(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10, Mode: ModeCumulative})

	snap := e.Snapshot()
	if len(snap.Visible) != 10 || !snap.HasMore {
		t.Fatalf("initial visible=%d hasMore=%v, want 10/true", len(snap.Visible), snap.HasMore)
	}

	prev := len(snap.Visible)
	for i := range 2 {
		if !e.GrowOnSignal() {
			t.Fatalf("grow %d rejected", i+1)
		}
		if n := len(e.Visible()); n <= prev {
			t.Errorf("grow %d: visible %d did not grow from %d", i+1, n, prev)
		} else {
			prev = n
		}
	}
	snap = e.Snapshot()
	if len(snap.Visible) != 25 || snap.HasMore {
		t.Errorf("after 2 grows visible=%d hasMore=%v, want 25/false", len(snap.Visible), snap.HasMore)
	}
	if e.GrowOnSignal() {
		t.Error("third grow should be a no-op")
	}
	if got := e.Params().Cursor; got != 3 {
		t.Errorf("cursor = %d, want 3", got)
	}
	if diff := cmp.Diff(testutil.IDs(testutil.Roster(25)), visibleIDs(e)); diff != "" {
		t.Errorf("cumulative prefix mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_GrowBurstAdvancesOncePerCall(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(1000), Options{PageSize: 10, Mode: ModeCumulative})
	for range 7 {
		e.GrowOnSignal()
	}
	if got := e.Params().Cursor; got != 8 {
		t.Errorf("cursor = %d, want 8", got)
	}
	if got := len(e.Visible()); got != 80 {
		t.Errorf("visible = %d, want 80", got)
	}
}

func TestEngine_GrowRequiresReadyCumulative(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10})
	if e.GrowOnSignal() {
		t.Error("grow in paged mode should be a no-op")
	}

	e.SetPaginationMode(ModeCumulative)
	tk := e.BeginReload()
	if e.GrowOnSignal() {
		t.Error("grow while loading should be a no-op")
	}
	e.CompleteReload(tk, nil, errors.New("down"))
	if e.GrowOnSignal() {
		t.Error("grow after a failed load should be a no-op")
	}
}

func TestEngine_GoToPageRejectedInCumulative(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10, Mode: ModeCumulative})
	if e.GoToPage(2) {
		t.Error("GoToPage should be rejected in cumulative mode")
	}
}

func TestEngine_ParamChangesResetCursor(t *testing.T) {
	tests := []struct {
		name   string
		change func(*Engine)
	}{
		{"search", func(e *Engine) { e.SetSearchTerm("user") }},
		{"sort", func(e *Engine) { e.SetSort(records.FieldBalance) }},
		{"sort direction", func(e *Engine) { e.SetSortDirection(records.FieldID, Desc) }},
		{"page size", func(e *Engine) { e.SetPageSize(5) }},
		{"mode", func(e *Engine) { e.SetPaginationMode(ModeCumulative) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newLoadedEngine(t, testutil.Roster(50), Options{PageSize: 10})
			e.GoToPage(4)
			tt.change(e)
			if got := e.Params().Cursor; got != 1 {
				t.Errorf("cursor = %d, want 1", got)
			}
		})
	}
}

func TestEngine_SetSortTogglesDirection(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(5), Options{PageSize: 10})

	e.SetSort(records.FieldBalance)
	if p := e.Params(); p.SortKey != records.FieldBalance || p.Direction != Asc {
		t.Fatalf("first SetSort = %v/%v, want balance/asc", p.SortKey, p.Direction)
	}
	e.SetSort(records.FieldBalance)
	if p := e.Params(); p.Direction != Desc {
		t.Errorf("repeat SetSort direction = %v, want desc", p.Direction)
	}
	if diff := cmp.Diff([]int64{5, 4, 3, 2, 1}, visibleIDs(e)); diff != "" {
		t.Errorf("desc order mismatch (-want +got):\n%s", diff)
	}
	e.SetSort(records.FieldName)
	if p := e.Params(); p.SortKey != records.FieldName || p.Direction != Asc {
		t.Errorf("new key = %v/%v, want name/asc", p.SortKey, p.Direction)
	}
}

func TestEngine_SetPageSizeRejectsNonPositive(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10})
	e.GoToPage(2)
	before := e.Params()
	if e.SetPageSize(0) || e.SetPageSize(-3) {
		t.Error("non-positive page size should be rejected")
	}
	if diff := cmp.Diff(before, e.Params()); diff != "" {
		t.Errorf("params changed (-want +got):\n%s", diff)
	}
}

func TestEngine_SearchFiltersAndCounts(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10})
	e.SetSearchTerm("pending")
	snap := e.Snapshot()
	// Statuses cycle Active, Inactive, Pending: ids 3, 6, ..., 24.
	if snap.TotalCount != 8 || snap.TotalPages != 1 {
		t.Errorf("total=%d pages=%d, want 8/1", snap.TotalCount, snap.TotalPages)
	}
	for _, r := range snap.Visible {
		if r.Status != records.StatusPending {
			t.Errorf("record %d has status %s", r.ID, r.Status)
		}
	}

	e.SetSearchTerm("no such user")
	snap = e.Snapshot()
	if snap.TotalCount != 0 || snap.TotalPages != 0 || len(snap.Visible) != 0 || snap.Params.Cursor != 1 {
		t.Errorf("empty result: total=%d pages=%d visible=%d cursor=%d",
			snap.TotalCount, snap.TotalPages, len(snap.Visible), snap.Params.Cursor)
	}
	if snap.AllVisibleSelected {
		t.Error("empty view should not report all selected")
	}
}

func TestEngine_SelectionSurvivesParamChanges(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10})

	if !e.ToggleSelection(3) || !e.ToggleSelection(22) {
		t.Fatal("ToggleSelection rejected a loaded id")
	}
	if e.ToggleSelection(999) {
		t.Error("unknown id should be ignored")
	}

	e.SetSearchTerm("User 2")
	e.SetSort(records.FieldBalance)
	e.SetPaginationMode(ModeCumulative)

	snap := e.Snapshot()
	if diff := cmp.Diff([]int64{3, 22}, snap.SelectedIDs); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	if !snap.IsSelected(22) || snap.IsSelected(999) {
		t.Error("IsSelected mismatch")
	}
}

func TestEngine_ToggleAllOnlyTouchesVisible(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10})
	e.ToggleSelection(25) // page 3

	e.ToggleAllSelection()
	snap := e.Snapshot()
	if !snap.AllVisibleSelected || snap.SelectedCount != 11 {
		t.Fatalf("allVisible=%v count=%d, want true/11", snap.AllVisibleSelected, snap.SelectedCount)
	}

	e.ToggleAllSelection()
	if diff := cmp.Diff([]int64{25}, e.Snapshot().SelectedIDs); diff != "" {
		t.Errorf("after second toggle-all (-want +got):\n%s", diff)
	}

	e.GoToPage(3)
	if e.Snapshot().AllVisibleSelected {
		t.Error("page 3 has 5 rows and only one selected")
	}
	e.ClearSelection()
	if got := e.Snapshot().SelectedCount; got != 0 {
		t.Errorf("SelectedCount after clear = %d", got)
	}
}

func TestEngine_ReloadClearsSelectionAndKeepsParams(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10, SortKey: records.FieldBalance, Direction: Desc})
	e.SetSearchTerm("user")
	e.ToggleSelection(1)

	testutil.MustNoErr(t, e.Reload(context.Background()), "Reload")

	snap := e.Snapshot()
	if snap.SelectedCount != 0 {
		t.Errorf("selection should be cleared by reload, got %v", snap.SelectedIDs)
	}
	if snap.Params.SearchTerm != "user" || snap.Params.SortKey != records.FieldBalance || snap.Params.Direction != Desc {
		t.Errorf("params not preserved: %+v", snap.Params)
	}
	if snap.Visible[0].ID != 25 {
		t.Errorf("first visible = %d, want 25", snap.Visible[0].ID)
	}
}

func TestEngine_LoadFailureSurfacesInSnapshot(t *testing.T) {
	boom := errors.New("upstream unavailable")
	e := NewEngine(records.ProviderFunc(func(context.Context) ([]records.Record, error) {
		return nil, boom
	}), Options{Logger: testLogger()})

	err := e.Reload(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Reload err = %v, want wrapping %v", err, boom)
	}
	snap := e.Snapshot()
	var le *LoadError
	if snap.Status != LoadFailed || !errors.As(snap.Err, &le) {
		t.Errorf("status=%v err=%v, want failed/*LoadError", snap.Status, snap.Err)
	}
	if len(snap.Visible) != 0 || snap.TotalPages != 0 {
		t.Errorf("failed load should have no rows: %+v", snap)
	}
	if snap.Params.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want default %d", snap.Params.PageSize, DefaultPageSize)
	}
}

func TestEngine_SupersededReloadDropped(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(3), Options{PageSize: 10})

	first := e.BeginReload()
	second := e.BeginReload()
	if e.CompleteReload(first, testutil.Roster(50), nil) {
		t.Error("superseded result should be dropped")
	}
	if !e.CompleteReload(second, testutil.Roster(7), nil) {
		t.Fatal("current result rejected")
	}
	if got := e.Snapshot().TotalCount; got != 7 {
		t.Errorf("TotalCount = %d, want 7", got)
	}
}

func TestEngine_ReloadClampsPagedCursor(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(50), Options{PageSize: 10})
	e.GoToPage(5)

	tk := e.BeginReload()
	e.CompleteReload(tk, testutil.Roster(15), nil)

	if got := e.Params().Cursor; got != 1 && got != 2 {
		t.Errorf("cursor = %d, want within [1, 2]", got)
	}
}

func TestEngine_SnapshotIsACopy(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(3), Options{PageSize: 10})
	snap := e.Snapshot()
	snap.Visible[0].Name = "mutated"
	if e.Visible()[0].Name == "mutated" {
		t.Error("snapshot aliases engine state")
	}
}

func TestEngine_EmptyStoreHasOnePageCursor(t *testing.T) {
	e := newLoadedEngine(t, nil, Options{PageSize: 10})
	snap := e.Snapshot()
	if snap.Status != LoadReady || snap.Params.Cursor != 1 || snap.TotalPages != 0 {
		t.Errorf("empty store snapshot = %+v", snap)
	}
	if e.GoToPage(1) {
		t.Error("GoToPage(1) with zero pages should be rejected")
	}
	if diff := cmp.Diff([]int64(nil), visibleIDs(e), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_RepeatedReloadKeepsRecordsVisible(t *testing.T) {
	e := newLoadedEngine(t, testutil.Roster(25), Options{PageSize: 10})
	e.SetSearchTerm("user 2")

	for i := range 3 {
		testutil.MustNoErr(t, e.Reload(context.Background()), "Reload")
		snap := e.Snapshot()
		if snap.Status != LoadReady || snap.TotalCount != 7 || len(snap.Visible) != 7 {
			t.Fatalf("reload %d: status=%v total=%d visible=%d, want ready/7/7",
				i+1, snap.Status, snap.TotalCount, len(snap.Visible))
		}
	}

	e.SetSearchTerm("")
	if snap := e.Snapshot(); snap.TotalCount != 25 || snap.TotalPages != 3 {
		t.Errorf("after clearing search: total=%d pages=%d, want 25/3", snap.TotalCount, snap.TotalPages)
	}
}

func TestEngine_SelectionClearedWhenStoreReplaced(t *testing.T) {
	tests := []struct {
		name string
		recs []records.Record
		err  error
	}{
		{"successful load", testutil.Roster(5), nil},
		{"failed load", nil, errors.New("down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newLoadedEngine(t, testutil.Roster(5), Options{PageSize: 10})
			e.ToggleSelection(2)

			tk := e.BeginReload()
			if got := e.Snapshot().SelectedIDs; !cmp.Equal(got, []int64{2}) {
				t.Errorf("selection while loading = %v, want [2]", got)
			}

			e.CompleteReload(tk, tt.recs, tt.err)
			if n := e.Snapshot().SelectedCount; n != 0 {
				t.Errorf("SelectedCount after store replacement = %d, want 0", n)
			}
		})
	}
}
