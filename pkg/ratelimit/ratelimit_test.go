package ratelimit_test

import (
	"context"
	"filescanner/pkg/ratelimit"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// jitter tolerates goroutine wake-up delays when comparing wall-clock stamps.
const jitter = 10 * time.Millisecond

func TestLimiter_FirstCallIsImmediate(t *testing.T) {
	l := ratelimit.New(time.Hour, nil)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_SpacingUnderConcurrency(t *testing.T) {
	const (
		interval = 50 * time.Millisecond
		callers  = 6
	)
	l := ratelimit.New(interval, nil)

	var (
		mu    sync.Mutex
		stamp []time.Time
		wg    sync.WaitGroup
	)
	start := time.Now()
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, l.Wait(context.Background()))
			now := time.Now()
			mu.Lock()
			stamp = append(stamp, now)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamp, callers)
	slices.SortFunc(stamp, func(a, b time.Time) int { return a.Compare(b) })
	for i := 1; i < len(stamp); i++ {
		require.GreaterOrEqual(t, stamp[i].Sub(stamp[i-1]), interval-jitter, "calls %d and %d too close", i-1, i)
	}
	require.GreaterOrEqual(t, time.Since(start), (callers-1)*interval)
}

func TestLimiter_ContextCanceled(t *testing.T) {
	l := ratelimit.New(time.Hour, nil)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx))

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	require.Error(t, l.Wait(canceled))
}

func TestLimiter_Disabled(t *testing.T) {
	l := ratelimit.New(0, nil)
	start := time.Now()
	for range 100 {
		require.NoError(t, l.Wait(context.Background()))
	}
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, time.Duration(0), l.Interval())
}
