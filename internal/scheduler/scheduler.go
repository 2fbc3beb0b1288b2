// Package scheduler runs roster refreshes on cron schedules.
package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wesm/rosterview/internal/config"
)

// RefreshJob is the job name used for the configured [refresh] schedule.
const RefreshJob = "roster"

// ErrSkipped may be returned by a RefreshFunc that decided not to run, for
// example because the previous load failed. It is counted, not recorded as
// an error.
var ErrSkipped = errors.New("refresh skipped")

// RefreshFunc reloads the roster for the named job. ctx is cancelled by Stop.
type RefreshFunc func(ctx context.Context, job string) error

// JobStatus is the externally visible state of one job.
type JobStatus struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run,omitempty"`
	NextRun   time.Time `json:"next_run"`
	Schedule  string    `json:"schedule"`
	Skipped   int       `json:"skipped"`
	LastError string    `json:"last_error,omitempty"`
}

// job is the bookkeeping for one scheduled refresh. Fields are guarded by
// Scheduler.mu.
type job struct {
	entry    cron.EntryID
	schedule string
	running  bool
	lastRun  time.Time // last successful refresh
	lastErr  error
	skipped  int
}

// Scheduler owns a cron runner and guarantees at most one in-flight refresh
// per job, whether it was started by the clock or by Trigger.
type Scheduler struct {
	cron    *cron.Cron
	refresh RefreshFunc
	logger  *slog.Logger

	mu      sync.RWMutex
	jobs    map[string]*job
	started bool
	stopped bool

	ctx    context.Context // cancelled on Stop
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// parser accepts standard five-field expressions and @descriptors.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New creates a stopped scheduler that calls refresh.
func New(refresh RefreshFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		refresh: refresh,
		logger:  slog.Default(),
		jobs:    make(map[string]*job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// WithLogger sets the logger for the scheduler.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// AddJob schedules name on expr, replacing any earlier schedule for it. The
// job's run history is kept across replacement.
func (s *Scheduler) AddJob(name, expr string) error {
	sched, err := parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if ok {
		s.cron.Remove(j.entry)
	} else {
		j = &job{}
		s.jobs[name] = j
	}
	j.schedule = expr
	j.entry = s.cron.Schedule(sched, cron.FuncJob(func() {
		if s.claim(name) {
			s.run(name)
		}
	}))

	s.logger.Info("scheduled roster refresh",
		"job", name,
		"schedule", expr,
		"next_run", s.cron.Entry(j.entry).Next)
	return nil
}

// AddFromConfig schedules the [refresh] job when a schedule is configured.
// It reports whether a job was added.
func (s *Scheduler) AddFromConfig(cfg *config.Config) (bool, error) {
	if cfg.Refresh.Schedule == "" {
		return false, nil
	}
	if err := s.AddJob(RefreshJob, cfg.Refresh.Schedule); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveJob unschedules name. A refresh already running is left to finish.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[name]; ok {
		s.cron.Remove(j.entry)
		delete(s.jobs, name)
		s.logger.Info("removed refresh schedule", "job", name)
	}
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	s.stopped = false
	n := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", n)
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.stopped
}

// Stop halts the clock, cancels in-flight refreshes and returns a context
// that is done once they have all returned.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	s.cancel()

	ctx, done := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		done()
	}()
	return ctx
}

// IsScheduled reports whether name has a schedule.
func (s *Scheduler) IsScheduled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[name]
	return ok
}

// Trigger starts name now, outside its schedule.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch j, ok := s.jobs[name]; {
	case s.stopped:
		return fmt.Errorf("scheduler is stopped")
	case !ok:
		return fmt.Errorf("job %s is not scheduled", name)
	case j.running:
		return fmt.Errorf("refresh already running for %s", name)
	default:
		s.markRunning(j)
	}
	go s.run(name)
	return nil
}

// claim marks name running for a clock tick. It returns false when the
// scheduler is stopping or the previous refresh has not finished.
func (s *Scheduler) claim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok || s.stopped || j.running {
		return false
	}
	s.markRunning(j)
	return true
}

// markRunning must be called with mu held.
func (s *Scheduler) markRunning(j *job) {
	j.running = true
	s.wg.Add(1)
}

// run calls the refresh callback for a job claimed by Trigger or claim.
func (s *Scheduler) run(name string) {
	defer s.wg.Done()

	start := time.Now()
	err := s.refresh(s.ctx, name)
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return // removed while running
	}
	j.running = false
	switch {
	case errors.Is(err, ErrSkipped):
		j.skipped++
		s.logger.Info("roster refresh skipped", "job", name, "reason", err)
	case err != nil:
		j.lastErr = err
		s.logger.Error("roster refresh failed", "job", name, "elapsed", elapsed, "error", err)
	default:
		j.lastRun = time.Now()
		j.lastErr = nil
		s.logger.Info("roster refresh completed", "job", name, "elapsed", elapsed)
	}
}

// Status returns every job's state, sorted by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for name, j := range s.jobs {
		st := JobStatus{
			Name:     name,
			Running:  j.running,
			LastRun:  j.lastRun,
			NextRun:  s.cron.Entry(j.entry).Next,
			Schedule: j.schedule,
			Skipped:  j.skipped,
		}
		if j.lastErr != nil {
			st.LastError = j.lastErr.Error()
		}
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b JobStatus) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
