// Package api provides the HTTP API server for rosterview. It exposes the
// view engine's read model and commands over JSON.
package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/wesm/rosterview/internal/config"
	"github.com/wesm/rosterview/internal/scheduler"
	"github.com/wesm/rosterview/internal/view"
)

// RefreshScheduler defines the scheduler operations the API needs.
type RefreshScheduler interface {
	IsScheduled(name string) bool
	Trigger(name string) error
	Status() []JobStatus
	IsRunning() bool
}

// JobStatus is an alias for scheduler.JobStatus.
type JobStatus = scheduler.JobStatus

// Server represents the HTTP API server.
type Server struct {
	cfg         *config.Config
	scheduler   RefreshScheduler
	logger      *slog.Logger
	router      chi.Router
	server      *http.Server
	rateLimiter *RateLimiter

	mu     sync.Mutex // guards engine; never held across a fetch
	engine *view.Engine
}

// NewServer creates a new API server over engine. sched may be nil when no
// refresh schedule is configured.
func NewServer(cfg *config.Config, engine *view.Engine, sched RefreshScheduler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		engine:    engine,
		scheduler: sched,
		logger:    logger,
	}
	s.router = s.setupRouter()
	return s
}

// SetScheduler attaches the refresh scheduler after construction. The
// scheduler's callback usually needs the server, so it is created second.
func (s *Server) SetScheduler(sched RefreshScheduler) {
	s.scheduler = sched
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(CORSMiddleware(corsConfigFor(s.cfg.Server)))

	// 10 req/sec with burst of 20
	s.rateLimiter = NewRateLimiter(10, 20)
	r.Use(RateLimitMiddleware(s.rateLimiter))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/view", s.handleGetView)
		r.Put("/view/search", s.handleSetSearch)
		r.Put("/view/sort", s.handleSetSort)
		r.Put("/view/page-size", s.handleSetPageSize)
		r.Put("/view/mode", s.handleSetMode)
		r.Post("/view/page", s.handleGoToPage)
		r.Post("/view/grow", s.handleGrow)

		r.Post("/selection/toggle-all", s.handleToggleAll)
		r.Post("/selection/{id}/toggle", s.handleToggleSelection)
		r.Delete("/selection", s.handleClearSelection)

		r.Post("/reload", s.handleReload)

		r.Get("/scheduler/status", s.handleSchedulerStatus)
		r.Post("/scheduler/{job}/trigger", s.handleTriggerRefresh)
	})

	return r
}

// Addr is the host:port the server listens on. An empty bind address means
// loopback only.
func (s *Server) Addr() string {
	host := s.cfg.Server.BindAddr
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(s.cfg.Server.APIPort))
}

// Start serves until Shutdown. It refuses to listen on a non-loopback
// address without an API key.
func (s *Server) Start() error {
	if err := s.cfg.Server.ValidateSecure(); err != nil {
		return err
	}
	if s.cfg.Server.APIKey == "" {
		s.logger.Warn("roster API is unauthenticated; set [server] api_key in config.toml")
	}

	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("roster API listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Reload runs a full load cycle. The engine lock is released while the
// provider is called, so reads keep being served with Status=loading.
// It returns the *view.LoadError of a failed load.
func (s *Server) Reload(ctx context.Context) error {
	s.mu.Lock()
	ticket := s.engine.BeginReload()
	s.mu.Unlock()

	recs, err := s.engine.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.CompleteReload(ticket, recs, err) {
		return nil
	}
	return s.engine.Store().Err()
}

// ScheduledRefresh is the scheduler callback. A store that failed to load
// is left for an explicit reload, and a load already in flight is not
// duplicated.
func (s *Server) ScheduledRefresh(ctx context.Context, job string) error {
	s.mu.Lock()
	status := s.engine.Store().Status()
	s.mu.Unlock()

	switch status {
	case view.LoadFailed:
		return fmt.Errorf("%w: last load failed", scheduler.ErrSkipped)
	case view.LoadLoading:
		return fmt.Errorf("%w: load in progress", scheduler.ErrSkipped)
	}
	return s.Reload(ctx)
}

// loggerMiddleware records one line per request. Server errors are logged
// at error level so they stand out from routine traffic.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// requestKey extracts the caller's API key from either the Authorization
// header (bare or Bearer) or X-API-Key.
func requestKey(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// authMiddleware guards /api/v1 when an API key is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	want := []byte(s.cfg.Server.APIKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(want) > 0 && subtle.ConstantTimeCompare([]byte(requestKey(r)), want) != 1 {
			s.logger.Warn("rejected API request", "path", r.URL.Path, "client", clientKey(r))
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthResponse reports liveness and the roster load state.
type HealthResponse struct {
	Status  string `json:"status"`
	Records string `json:"records"`
	Count   int    `json:"count"`
}

// handleHealth answers 200 whenever the process is serving, even while the
// roster is loading or failed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := s.engine.Store()
	resp := HealthResponse{Status: "ok", Records: st.Status().String(), Count: len(st.Records())}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}
