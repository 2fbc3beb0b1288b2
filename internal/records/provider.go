package records

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Provider supplies the complete record set. A fetch either returns every
// record or an error; there are no partial results.
type Provider interface {
	FetchAll(ctx context.Context) ([]Record, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) ([]Record, error)

// FetchAll implements Provider.
func (f ProviderFunc) FetchAll(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// Static returns a provider that always yields a copy of recs.
func Static(recs []Record) Provider {
	return ProviderFunc(func(ctx context.Context) ([]Record, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make([]Record, len(recs))
		copy(out, recs)
		return out, nil
	})
}

// ErrInjectedFailure is returned by MockProvider when its failure rate fires.
var ErrInjectedFailure = errors.New("simulated provider failure")

// MockOptions configures a MockProvider.
type MockOptions struct {
	Count       int           // number of generated users
	Seed        uint64        // 0 means seed from the clock
	Latency     time.Duration // simulated network latency per fetch
	FailureRate float64       // probability in [0,1] that a fetch fails
}

// MockProvider generates a synthetic roster, simulating latency and
// optional failures the way a remote data source would.
type MockProvider struct {
	opts MockOptions
	recs []Record

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewMockProvider creates a provider whose roster is generated once, so
// repeated fetches return the same users.
func NewMockProvider(opts MockOptions) *MockProvider {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &MockProvider{
		opts: opts,
		recs: Generate(opts.Count, rng),
		rng:  rng,
	}
}

// FetchAll implements Provider. It waits for the configured latency and
// honours context cancellation while waiting.
func (p *MockProvider) FetchAll(ctx context.Context) ([]Record, error) {
	if p.opts.Latency > 0 {
		timer := time.NewTimer(p.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if p.shouldFail() {
		return nil, fmt.Errorf("fetch users: %w", ErrInjectedFailure)
	}
	out := make([]Record, len(p.recs))
	copy(out, p.recs)
	return out, nil
}

func (p *MockProvider) shouldFail() bool {
	if p.opts.FailureRate <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.opts.FailureRate
}

// Generate builds count synthetic users with IDs 1..count. Balances fall in
// [0, 10_000_000) and registration dates in 2023-2024.
func Generate(count int, rng *rand.Rand) []Record {
	if count <= 0 {
		return nil
	}
	out := make([]Record, 0, count)
	for i := 1; i <= count; i++ {
		registered := time.Date(
			2023+rng.IntN(2),
			time.Month(1+rng.IntN(12)),
			1+rng.IntN(28),
			rng.IntN(24),
			rng.IntN(60),
			0, 0, time.UTC,
		)
		out = append(out, Record{
			ID:           int64(i),
			Name:         fmt.Sprintf("User %d", i),
			Balance:      rng.Int64N(10_000_000),
			Email:        fmt.Sprintf("user%d@example.com", i),
			RegisteredAt: registered,
			Status:       Statuses[rng.IntN(len(Statuses))],
		})
	}
	return out
}
