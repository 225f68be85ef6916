// Package retry provides a bounded retry policy with pluggable backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is wrapped by the error Do returns when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Backoff returns the wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy configures how an operation is retried. The zero value is not usable; start from Default.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Sleep       Sleeper
	// OnRetry, if set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

const (
	DefaultMaxAttempts = 6
	DefaultMinWait     = 1 * time.Second
	DefaultMaxWait     = 60 * time.Second
)

// Default is six attempts with randomized exponential backoff clamped to [1s, 60s].
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     RandomExponential(DefaultMinWait, DefaultMaxWait, nil),
		Sleep:       SleepContext,
	}
}

// NoWait returns p with a zero backoff and an immediate sleeper. Intended for tests.
func (p Policy) NoWait() Policy {
	p.Backoff = func(int) time.Duration { return 0 }
	p.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

// Do calls op until it succeeds or MaxAttempts is reached. It returns the
// number of attempts made. Every error is retried; the last one is wrapped with
// ErrExhausted. Cancelling ctx interrupts the wait between attempts only.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == maxAttempts {
			break
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return attempt, fmt.Errorf("retry interrupted after attempt %d: %w", attempt, err)
		}
	}
	return maxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, lastErr)
}

// SleepContext blocks for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
