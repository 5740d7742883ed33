// Package infra holds small cross-cutting helpers: the bounded retry
// combinator used for all external calls.
package infra

import (
	"context"
	"log/slog"
	"time"
)

// RetryConfig controls the retry combinator. Delay before attempt n (n >= 2)
// is BaseDelay * 2^(n-2), so attempts run at t=0, base, 3*base, 7*base, ...
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration

	// Sleep is swapped out in tests to observe delays. Nil means a
	// context-aware timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff returns the delay preceding the given 1-based attempt number.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	shift := attempt - 2
	if shift > 30 {
		shift = 30
	}
	return c.BaseDelay * time.Duration(1<<shift)
}

// Retry runs fn up to cfg.Attempts times. Intermediate failures are logged at
// warn and retried after an exponentially growing delay; the error from the
// final attempt is what propagates. The zero value of T is returned on
// failure.
func Retry[T any](ctx context.Context, cfg RetryConfig, logger *slog.Logger, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, cfg.Backoff(attempt)); err != nil {
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt < attempts {
			logger.WarnContext(ctx, "attempt failed, retrying",
				slog.String("op", op),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
				slog.String("error", err.Error()),
			)
		}
	}
	return zero, lastErr
}
