package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/wesm/rosterview/internal/config"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/store"
	"github.com/wesm/rosterview/internal/view"
)

var sourceKind string

func init() {
	rootCmd.PersistentFlags().StringVar(&sourceKind, "source", "", `record source: "mock" or "sqlite" (default from [source] kind)`)
}

// openProvider returns the configured record provider. The returned close
// function releases the provider's resources and is always non-nil.
func openProvider(c *config.Config) (records.Provider, func() error, error) {
	kind := c.Source.Kind
	if sourceKind != "" {
		kind = strings.ToLower(strings.TrimSpace(sourceKind))
	}

	switch kind {
	case config.SourceMock, "":
		p := records.NewMockProvider(records.MockOptions{
			Count:       c.Source.Count,
			Seed:        c.Source.Seed,
			Latency:     time.Duration(c.Source.LatencyMS) * time.Millisecond,
			FailureRate: c.Source.FailureRate,
		})
		return p, func() error { return nil }, nil
	case config.SourceSQLite:
		s, err := openStore(c)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q: want %q or %q", kind, config.SourceMock, config.SourceSQLite)
}

// openStore opens the roster database and makes sure its schema exists.
func openStore(c *config.Config) (*store.Store, error) {
	s, err := store.Open(c.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.InitSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// viewOptions converts the [view] section into engine options.
func viewOptions(c *config.Config) (view.Options, error) {
	mode, ok := view.ParseMode(c.View.Pagination)
	if !ok {
		return view.Options{}, fmt.Errorf("invalid pagination mode %q", c.View.Pagination)
	}
	key, err := records.ParseField(c.View.SortKey)
	if err != nil {
		return view.Options{}, err
	}
	return view.Options{
		PageSize:  c.View.PageSize,
		Mode:      mode,
		SortKey:   key,
		Direction: view.ParseDirection(strings.ToLower(c.View.SortDirection)),
		Logger:    logger,
	}, nil
}
