package retry_test

import (
	"context"
	"errors"
	"filescanner/pkg/retry"
	"filescanner/pkg/serrors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func transient() error { return serrors.With(serrors.ErrUpload, "upload failed with 502") }

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	var retried []int
	p := retry.Policy{
		Retries: 3,
		Delay:   time.Millisecond,
		OnRetry: func(_ error, attempt int, _ time.Duration) { retried = append(retried, attempt) },
	}

	_, err := retry.Do(context.Background(), p, func(_ context.Context, attempt int) (string, error) {
		calls++
		require.Equal(t, calls, attempt)

		return "", transient()
	})

	require.Equal(t, 4, calls, "first attempt plus three retries")
	require.Equal(t, []int{1, 2, 3}, retried)
	require.ErrorIs(t, err, serrors.ErrMaxRetriesExceeded)
	require.ErrorIs(t, err, serrors.ErrUpload, "last error must stay reachable")
}

func TestDo_SucceedsEarly(t *testing.T) {
	calls := 0
	p := retry.Policy{Retries: 5, Delay: time.Millisecond}

	got, err := retry.Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++
		if calls < 2 {
			return 0, serrors.KindOnly(serrors.ErrTimeout)
		}

		return 42, nil
	})

	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 2, calls)
}

func TestDo_NonRetryableSurfacesImmediately(t *testing.T) {
	for _, kind := range []serrors.Kind{serrors.ErrNotFound, serrors.ErrIO, serrors.ErrAuth} {
		t.Run(kind.Error(), func(t *testing.T) {
			calls := 0
			_, err := retry.Do(context.Background(), retry.Policy{Retries: 3, Delay: time.Millisecond},
				func(context.Context, int) (struct{}, error) {
					calls++

					return struct{}{}, serrors.With(kind, "nope")
				})

			require.Equal(t, 1, calls)
			require.ErrorIs(t, err, kind)
			require.NotErrorIs(t, err, serrors.ErrMaxRetriesExceeded)
		})
	}
}

func TestDo_ZeroRetries(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), retry.Policy{}, func(context.Context, int) (int, error) {
		calls++

		return 0, transient()
	})
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, serrors.ErrMaxRetriesExceeded)
}

func TestDo_FixedDelay(t *testing.T) {
	const delay = 30 * time.Millisecond
	var stamps []time.Time
	_, _ = retry.Do(context.Background(), retry.Policy{Retries: 2, Delay: delay},
		func(context.Context, int) (int, error) {
			stamps = append(stamps, time.Now())

			return 0, transient()
		})

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		require.GreaterOrEqual(t, gap, delay)
		require.Less(t, gap, 4*delay, "fixed delay must not grow")
	}
}

func TestDo_ExponentialDelay(t *testing.T) {
	var next []time.Duration
	p := retry.Policy{
		Retries:  3,
		Delay:    5 * time.Millisecond,
		Strategy: retry.Exponential,
		OnRetry:  func(_ error, _ int, d time.Duration) { next = append(next, d) },
	}
	_, _ = retry.Do(context.Background(), p, func(context.Context, int) (int, error) {
		return 0, transient()
	})

	require.Equal(t, []time.Duration{5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond}, next)
}

func TestDo_ContextCanceledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{Retries: 3, Delay: time.Hour}

	_, err := retry.Do(ctx, p, func(context.Context, int) (int, error) {
		cancel()

		return 0, transient()
	})

	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, serrors.ErrMaxRetriesExceeded)
}

func TestDo_CustomRetryable(t *testing.T) {
	calls := 0
	plain := errors.New("plain")
	p := retry.Policy{Retries: 2, Delay: time.Millisecond, Retryable: func(err error) bool { return errors.Is(err, plain) }}

	_, err := retry.Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++

		return 0, plain
	})
	require.Equal(t, 3, calls)
	require.ErrorIs(t, err, plain)
	require.ErrorIs(t, err, serrors.ErrMaxRetriesExceeded)
}

func TestParseStrategy(t *testing.T) {
	s, err := retry.ParseStrategy("")
	require.NoError(t, err)
	require.Equal(t, retry.Fixed, s)

	s, err = retry.ParseStrategy("exponential")
	require.NoError(t, err)
	require.Equal(t, retry.Exponential, s)

	_, err = retry.ParseStrategy("fibonacci")
	require.Error(t, err)
}
