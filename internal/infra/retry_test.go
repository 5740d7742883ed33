package infra

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	cfg := RetryConfig{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	v, err := Retry(context.Background(), cfg, testLogger(), "fetch", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestRetryExhaustionReturnsFinalError(t *testing.T) {
	cfg := RetryConfig{
		Attempts:  3,
		BaseDelay: time.Millisecond,
		Sleep:     func(context.Context, time.Duration) error { return nil },
	}

	calls := 0
	_, err := Retry(context.Background(), cfg, testLogger(), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom " + string(rune('0'+calls)))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.EqualError(t, err, "boom 3")
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{
		Attempts:  5,
		BaseDelay: time.Millisecond,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	calls := 0
	_, err := Retry(ctx, cfg, testLogger(), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffCapsShift(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Nanosecond}
	assert.Equal(t, time.Duration(0), cfg.Backoff(1))
	assert.Equal(t, time.Nanosecond, cfg.Backoff(2))
	assert.Equal(t, 4*time.Nanosecond, cfg.Backoff(4))
	assert.Equal(t, time.Duration(1<<30), cfg.Backoff(100))
}
