package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wesm/rosterview/internal/records"
	"golang.org/x/sync/semaphore"
)

// LoadStatus is the lifecycle state of the record store.
type LoadStatus int

const (
	LoadIdle LoadStatus = iota // never loaded
	LoadLoading
	LoadReady
	LoadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadLoading:
		return "loading"
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoadError reports that the record provider failed. It is surfaced in the
// read model and is only recovered by an explicit reload.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load records: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Ticket identifies one load cycle. Results carrying an older ticket are
// stale and dropped.
type Ticket uint64

// Store holds the authoritative record set and its load status.
//
// Begin, Complete and the accessors belong to the single owner of the store.
// Fetch may run on another goroutine: it only touches the provider and is
// serialized so that provider calls never interleave.
type Store struct {
	provider records.Provider
	gate     *semaphore.Weighted
	logger   *slog.Logger

	status     LoadStatus
	err        error
	recs       []records.Record
	ids        map[int64]struct{}
	generation uint64
	pending    bool // current ticket not yet resolved
}

// NewStore creates an idle store over provider.
func NewStore(provider records.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		provider: provider,
		gate:     semaphore.NewWeighted(1),
		logger:   logger,
		ids:      make(map[int64]struct{}),
	}
}

// Begin starts a new load cycle: the store enters LoadLoading, the previous
// records and error are discarded, and any in-flight load is superseded.
func (s *Store) Begin() Ticket {
	s.generation++
	s.status = LoadLoading
	s.err = nil
	s.recs = nil
	s.ids = make(map[int64]struct{})
	s.pending = true
	s.logger.Debug("record load started", "ticket", s.generation)
	return Ticket(s.generation)
}

// Fetch calls the provider. Concurrent calls queue behind each other.
// Provider failures are returned as *LoadError.
func (s *Store) Fetch(ctx context.Context) ([]records.Record, error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return nil, &LoadError{Err: err}
	}
	defer s.gate.Release(1)

	recs, err := s.provider.FetchAll(ctx)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return recs, nil
}

// Complete resolves the load identified by t. It returns false, leaving the
// store untouched, when t has been superseded or already resolved.
func (s *Store) Complete(t Ticket, recs []records.Record, err error) bool {
	if uint64(t) != s.generation || !s.pending {
		s.logger.Debug("dropping stale record load", "ticket", uint64(t), "current", s.generation)
		return false
	}
	s.pending = false

	var ids map[int64]struct{}
	if err == nil {
		ids, err = indexIDs(recs)
	}
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			le = &LoadError{Err: err}
		}
		s.status = LoadFailed
		s.err = le
		s.logger.Warn("record load failed", "error", le.Err)
		return true
	}

	s.recs = recs
	s.ids = ids
	s.status = LoadReady
	s.logger.Info("records loaded", "count", len(recs))
	return true
}

// Load runs a whole load cycle on the calling goroutine.
func (s *Store) Load(ctx context.Context) error {
	t := s.Begin()
	recs, err := s.Fetch(ctx)
	s.Complete(t, recs, err)
	return s.err
}

// Status returns the current load status.
func (s *Store) Status() LoadStatus { return s.status }

// Err returns the *LoadError of a failed load, or nil.
func (s *Store) Err() error { return s.err }

// Records returns the loaded records. Callers must not modify the slice.
func (s *Store) Records() []records.Record { return s.recs }

// Generation identifies the current record set; it changes on every Begin.
func (s *Store) Generation() uint64 { return s.generation }

// Has reports whether a record with the given ID is loaded.
func (s *Store) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func indexIDs(recs []records.Record) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(recs))
	for _, r := range recs {
		if _, dup := ids[r.ID]; dup {
			return nil, &LoadError{Err: fmt.Errorf("duplicate record id %d", r.ID)}
		}
		ids[r.ID] = struct{}{}
	}
	return ids, nil
}
