package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/textutil"
	"github.com/wesm/rosterview/internal/view"
)

// maxBodyBytes bounds command request bodies.
const maxBodyBytes = 64 << 10

// RecordResponse represents one visible row.
type RecordResponse struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Balance             int64  `json:"balance"`
	BalanceDisplay      string `json:"balance_display"`
	Email               string `json:"email"`
	RegisteredAt        string `json:"registered_at"`
	RegisteredDisplay   string `json:"registered_display"`
	RegisteredTimestamp string `json:"registered_timestamp"`
	Status              string `json:"status"`
	Selected            bool   `json:"selected"`
}

// ParamsResponse represents the current view parameters.
type ParamsResponse struct {
	Search    string `json:"search"`
	SortKey   string `json:"sort_key"`
	Direction string `json:"direction"`
	PageSize  int    `json:"page_size"`
	Mode      string `json:"mode"`
	Page      int    `json:"page"`
}

// ViewResponse is the read model returned by every view and selection
// endpoint.
type ViewResponse struct {
	Status             string           `json:"status"`
	Error              string           `json:"error,omitempty"`
	Records            []RecordResponse `json:"records"`
	TotalCount         int              `json:"total_count"`
	TotalPages         int              `json:"total_pages"`
	HasMore            bool             `json:"has_more"`
	PageLinks          []int            `json:"page_links"`
	Params             ParamsResponse   `json:"params"`
	SelectedIDs        []int64          `json:"selected_ids"`
	SelectedCount      int              `json:"selected_count"`
	AllVisibleSelected bool             `json:"all_visible_selected"`
}

// SchedulerStatusResponse represents scheduler status.
type SchedulerStatusResponse struct {
	Running bool        `json:"running"`
	Jobs    []JobStatus `json:"jobs"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// NewViewResponse converts a snapshot into its JSON form.
func NewViewResponse(snap view.Snapshot) ViewResponse {
	resp := ViewResponse{
		Status:             snap.Status.String(),
		Records:            make([]RecordResponse, len(snap.Visible)),
		TotalCount:         snap.TotalCount,
		TotalPages:         snap.TotalPages,
		HasMore:            snap.HasMore,
		PageLinks:          []int{},
		SelectedIDs:        snap.SelectedIDs,
		SelectedCount:      snap.SelectedCount,
		AllVisibleSelected: snap.AllVisibleSelected,
		Params: ParamsResponse{
			Search:    snap.Params.SearchTerm,
			SortKey:   snap.Params.SortKey.String(),
			Direction: snap.Params.Direction.String(),
			PageSize:  snap.Params.PageSize,
			Mode:      snap.Params.Mode.String(),
			Page:      snap.Params.Cursor,
		},
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	if resp.SelectedIDs == nil {
		resp.SelectedIDs = []int64{}
	}
	if snap.Params.Mode == view.ModePaged {
		resp.PageLinks = view.PageLinks(snap.Params.Cursor, snap.TotalPages)
	}
	for i, r := range snap.Visible {
		resp.Records[i] = NewRecordResponse(r, snap.IsSelected(r.ID))
	}
	return resp
}

// NewRecordResponse converts one record into its JSON form.
func NewRecordResponse(r records.Record, selected bool) RecordResponse {
	return RecordResponse{
		ID:                  r.ID,
		Name:                r.Name,
		Balance:             r.Balance,
		BalanceDisplay:      textutil.FormatBalance(r.Balance),
		Email:               r.Email,
		RegisteredAt:        r.RegisteredAt.UTC().Format(time.RFC3339),
		RegisteredDisplay:   textutil.FormatDate(r.RegisteredAt),
		RegisteredTimestamp: textutil.FormatTimestamp(r.RegisteredAt),
		Status:              r.Status.String(),
		Selected:            selected,
	}
}

// mutate applies fn to the engine under the lock and writes the resulting
// view. Commands that reject their arguments leave the view unchanged and
// still answer 200.
func (s *Server) mutate(w http.ResponseWriter, fn func(e *view.Engine)) {
	s.mu.Lock()
	fn(s.engine)
	snap := s.engine.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, NewViewResponse(snap))
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "Request body must be a JSON object"
		if !errors.Is(err, io.EOF) {
			msg = "Invalid request body: " + err.Error()
		}
		writeError(w, http.StatusBadRequest, "invalid_body", msg)
		return false
	}
	return true
}

// handleGetView returns the current read model.
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func(*view.Engine) {})
}

// SearchRequest is the body of PUT /view/search.
type SearchRequest struct {
	Term string `json:"term"`
}

func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, func(e *view.Engine) { e.SetSearchTerm(req.Term) })
}

// SortRequest is the body of PUT /view/sort. Without a direction the
// request behaves like a header click: the current key flips direction and
// a new key starts ascending.
type SortRequest struct {
	Key       string `json:"key"`
	Direction string `json:"direction,omitempty"`
}

func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key, err := records.ParseField(req.Key)
	s.mutate(w, func(e *view.Engine) {
		if err != nil {
			s.logger.Debug("ignoring unknown sort key", "key", req.Key)
			return
		}
		switch req.Direction {
		case "":
			e.SetSort(key)
		case "asc", "desc":
			e.SetSortDirection(key, view.ParseDirection(req.Direction))
		}
	})
}

// PageSizeRequest is the body of PUT /view/page-size.
type PageSizeRequest struct {
	PageSize int `json:"page_size"`
}

func (s *Server) handleSetPageSize(w http.ResponseWriter, r *http.Request) {
	var req PageSizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, func(e *view.Engine) { e.SetPageSize(req.PageSize) })
}

// ModeRequest is the body of PUT /view/mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mode, ok := view.ParseMode(req.Mode)
	s.mutate(w, func(e *view.Engine) {
		if ok {
			e.SetPaginationMode(mode)
		}
	})
}

// PageRequest is the body of POST /view/page.
type PageRequest struct {
	Page int `json:"page"`
}

func (s *Server) handleGoToPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, func(e *view.Engine) { e.GoToPage(req.Page) })
}

// handleGrow is the remote form of the end-of-list visibility signal.
func (s *Server) handleGrow(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func(e *view.Engine) { e.GrowOnSignal() })
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Record ID must be a number")
		return
	}
	s.mutate(w, func(e *view.Engine) { e.ToggleSelection(id) })
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func(e *view.Engine) { e.ToggleAllSelection() })
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, func(e *view.Engine) { e.ClearSelection() })
}

// handleReload reloads the records and returns the resulting view. A failed
// load is reported in the view's status and error fields, not as an HTTP
// error.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		s.logger.Warn("reload via API failed", "error", err)
	}
	s.mutate(w, func(*view.Engine) {})
}

// handleSchedulerStatus returns the scheduler status.
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler_unavailable", "No refresh schedule configured")
		return
	}
	jobs := s.scheduler.Status()
	if jobs == nil {
		jobs = []JobStatus{}
	}
	writeJSON(w, http.StatusOK, SchedulerStatusResponse{
		Running: s.scheduler.IsRunning(),
		Jobs:    jobs,
	})
}

// handleTriggerRefresh runs a scheduled job immediately.
func (s *Server) handleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler_unavailable", "No refresh schedule configured")
		return
	}
	job := chi.URLParam(r, "job")
	if !s.scheduler.IsScheduled(job) {
		writeError(w, http.StatusNotFound, "not_found", "Job "+job+" is not scheduled")
		return
	}
	if err := s.scheduler.Trigger(job); err != nil {
		s.logger.Error("failed to trigger refresh", "job", job, "error", err)
		writeError(w, http.StatusConflict, "refresh_error", err.Error())
		return
	}

	s.logger.Info("refresh triggered via API", "job", job)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "Refresh started for " + job,
	})
}
