// Package retry runs an operation again when it fails with a transient error.
package retry

import (
	"context"
	"errors"
	"filescanner/pkg/serrors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy selects how the delay between attempts evolves.
type Strategy string

const (
	// Fixed waits Policy.Delay before every retry.
	Fixed Strategy = "fixed"
	// Exponential waits Delay, 2*Delay, 4*Delay, ... without jitter.
	Exponential Strategy = "exponential"
)

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Fixed, "":
		return Fixed, nil
	case Exponential:
		return Exponential, nil
	default:
		return "", fmt.Errorf("unknown retry strategy %q", s)
	}
}

// maxExponentialDelay caps exponential waits.
const maxExponentialDelay = time.Hour

// Policy describes the retry budget of one operation.
type Policy struct {
	// Retries is the number of retries after the first attempt, so an
	// operation runs at most Retries+1 times.
	Retries int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// Strategy is Fixed when empty.
	Strategy Strategy
	// Retryable decides whether an error is worth another attempt.
	// serrors.Retryable is used when nil.
	Retryable func(error) bool
	// OnRetry is called before waiting for the next attempt.
	OnRetry func(err error, attempt int, next time.Duration)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	switch p.Strategy {
	case Exponential:
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = p.Delay
		exp.Multiplier = 2
		exp.RandomizationFactor = 0
		exp.MaxInterval = maxExponentialDelay
		exp.MaxElapsedTime = 0
		b = exp
	default:
		b = backoff.NewConstantBackOff(p.Delay)
	}

	retries := p.Retries
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Do calls op until it succeeds, fails with a non-retryable error or the
// budget is spent. attempt starts at 1.
//
// Non-retryable errors are returned unchanged. When every attempt failed with
// a retryable error the last one is wrapped in serrors.ErrMaxRetriesExceeded.
// If ctx is done while waiting between attempts, the context error is returned.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = serrors.Retryable
	}

	attempt := 0
	res, err := backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		res, err := op(ctx, attempt)
		if err != nil && !retryable(err) {
			return res, backoff.Permanent(err)
		}

		return res, err
	}, p.backOff(ctx), func(err error, next time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(err, attempt, next)
		}
	})
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return res, err //nolint: wrapcheck
	}
	if retryable(err) {
		return res, serrors.Wrap(serrors.ErrMaxRetriesExceeded, err, "giving up after %d attempts", attempt)
	}

	return res, err //nolint: wrapcheck
}
