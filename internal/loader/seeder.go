package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abgdnv/catalog/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

// SeedResult is the outcome of EnsureSeeded.
type SeedResult int

const (
	// Skipped means nothing was fetched or the fetched list was not applied.
	Skipped SeedResult = iota
	// Seeded means the fetched list replaced the empty collection.
	Seeded
	// Failed means the fetch failed or was cancelled. The store is unchanged.
	Failed
)

func (r SeedResult) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case Seeded:
		return "seeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("SeedResult(%d)", int(r))
	}
}

const seedKey = "seed"

// Seeder populates an empty store from the remote catalog.
// A successful seed happens at most once; after a failure the next caller tries again.
type Seeder struct {
	store    store.ProductStore
	fetcher  Fetcher
	limit    int
	timeout  time.Duration
	logger   *slog.Logger
	group    singleflight.Group
	seeded   atomic.Bool
	attempts metric.Int64Counter

	mu       sync.Mutex
	onSeeded []func()
	inFlight *flight
}

// flight is the context of the shared fetch.
// It is cancelled when its last waiter leaves, not when the first caller does.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewSeeder creates a Seeder that requests up to limit products.
// A shared fetch is bounded by timeout; zero means no bound beyond the fetcher's own.
func NewSeeder(productStore store.ProductStore, fetcher Fetcher, limit int, timeout time.Duration, logger *slog.Logger) *Seeder {
	meter := otel.Meter("catalog")
	attempts, err := meter.Int64Counter("catalog_seed_attempts", metric.WithDescription("Total number of catalog seed attempts"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_seed_attempts counter: %v", err))
	}
	return &Seeder{
		store:    productStore,
		fetcher:  fetcher,
		limit:    limit,
		timeout:  timeout,
		logger:   logger.With("component", "seeder"),
		attempts: attempts,
	}
}

// OnSeeded registers fn to run once the store has been seeded.
// fn runs immediately if the seed already happened.
func (s *Seeder) OnSeeded(fn func()) {
	s.mu.Lock()
	if !s.seeded.Load() {
		s.onSeeded = append(s.onSeeded, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Seeded reports whether a seed has succeeded.
func (s *Seeder) Seeded() bool {
	return s.seeded.Load()
}

// EnsureSeeded fetches the remote catalog if the store is empty and no seed succeeded yet.
// Concurrent callers share one fetch. Errors are logged, never returned.
// A caller whose ctx is done gets Failed; the fetch goes on while any other caller waits.
// If every caller leaves before the fetch completes, the result is discarded.
func (s *Seeder) EnsureSeeded(ctx context.Context) SeedResult {
	if s.seeded.Load() || s.store.Len() > 0 {
		return Skipped
	}

	f := s.join(ctx)
	defer s.leave(f)

	ch := s.group.DoChan(seedKey, func() (any, error) {
		return s.seed(f.ctx), nil
	})

	select {
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "seed abandoned by caller", "error", ctx.Err())
		return Failed
	case res := <-ch:
		return res.Val.(SeedResult)
	}
}

// join registers the caller on the current flight, starting one if needed.
// The flight context keeps ctx values but not its cancellation.
func (s *Seeder) join(ctx context.Context) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		base := context.WithoutCancel(ctx)
		var fctx context.Context
		var cancel context.CancelFunc
		if s.timeout > 0 {
			fctx, cancel = context.WithTimeout(base, s.timeout)
		} else {
			fctx, cancel = context.WithCancel(base)
		}
		s.inFlight = &flight{ctx: fctx, cancel: cancel}
	}
	s.inFlight.waiters++
	return s.inFlight
}

func (s *Seeder) leave(f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if s.inFlight == f {
		s.inFlight = nil
	}
}

// waiters returns the number of callers waiting on the current flight.
func (s *Seeder) waiters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		return 0
	}
	return s.inFlight.waiters
}

func (s *Seeder) seed(ctx context.Context) SeedResult {
	result := s.fetchAndApply(ctx)
	s.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result.String())))
	if result == Seeded {
		s.markSeeded()
	}
	return result
}

func (s *Seeder) fetchAndApply(ctx context.Context) SeedResult {
	resp, err := s.fetcher.FetchProducts(ctx, s.limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch products", "error", err)
		return Failed
	}
	if err := ctx.Err(); err != nil {
		s.logger.WarnContext(ctx, "discarding fetched products, no caller is waiting", "error", err)
		return Failed
	}
	if !s.store.SeedIfEmpty(resp.Products) {
		s.logger.InfoContext(ctx, "store is no longer empty, fetched products discarded", "fetched", len(resp.Products))
		return Skipped
	}
	s.logger.InfoContext(ctx, "store seeded from remote catalog", "count", len(resp.Products), "total", resp.Total)
	return Seeded
}

func (s *Seeder) markSeeded() {
	s.mu.Lock()
	s.seeded.Store(true)
	callbacks := s.onSeeded
	s.onSeeded = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
