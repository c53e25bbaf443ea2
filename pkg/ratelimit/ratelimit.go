// Package ratelimit spaces outbound calls to the remote scanning service.
package ratelimit

import (
	"context"
	"filescanner/pkg/metrics"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter guarantees a minimum interval between the calls it admits. The
// first call is admitted immediately. A single Limiter must be shared by every
// component that talks to the same remote service.
//
// It is a token bucket with a burst of one: each Wait atomically reserves the
// next free slot, so two concurrent callers can never be admitted for the same
// slot.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	metrics  *metrics.Metrics
}

// New creates a Limiter admitting at most one call per interval. A
// non-positive interval disables limiting.
func New(interval time.Duration, m *metrics.Metrics) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Limiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
		metrics:  m,
	}
}

// Wait blocks until the caller may issue its call. If ctx is done first (or
// its deadline is too close to ever reach the slot) the reservation is given
// back and the context error is returned.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("could not wait for rate limiter: %w", err)
	}
	l.metrics.RateLimitWait(time.Since(start))

	return nil
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
