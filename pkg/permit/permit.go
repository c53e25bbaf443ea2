// Package permit bounds the number of scan attempts running at once.
package permit

import (
	"context"
	"filescanner/pkg/metrics"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter hands out a fixed number of permits. Every Acquire that returns nil
// must be paired with exactly one Release.
type Limiter struct {
	sem      *semaphore.Weighted
	size     int
	inFlight atomic.Int64
	metrics  *metrics.Metrics
}

// New creates a Limiter with size permits. Sizes below one are raised to one.
func New(size int, m *metrics.Metrics) *Limiter {
	if size < 1 {
		size = 1
	}

	return &Limiter{
		sem:     semaphore.NewWeighted(int64(size)),
		size:    size,
		metrics: m,
	}
}

// Acquire blocks until a permit is available. It only fails when ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire scan permit: %w", err)
	}
	l.inFlight.Add(1)
	l.metrics.InFlight(1)

	return nil
}

// Release returns a permit taken by Acquire.
func (l *Limiter) Release() {
	l.inFlight.Add(-1)
	l.metrics.InFlight(-1)
	l.sem.Release(1)
}

// Do runs fn while holding a permit. The permit is released however fn returns.
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()

	return fn(ctx)
}

// InFlight returns the number of permits currently held.
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Size returns the total number of permits.
func (l *Limiter) Size() int {
	return l.size
}
