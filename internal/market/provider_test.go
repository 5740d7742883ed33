package market

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/feed"
	"github.com/alanyoungcy/swapsniper/internal/infra"
	"github.com/alanyoungcy/swapsniper/internal/platform/screener"
)

type fakeOracle struct {
	stats screener.TokenStats
	errs  []error
	calls int
}

func (f *fakeOracle) TokenStats(context.Context, string) (screener.TokenStats, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return screener.TokenStats{}, err
	}
	return f.stats, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func testProvider(oracle Oracle) *Provider {
	return NewProvider(oracle, NewTrendBook(time.Hour),
		infra.RetryConfig{Attempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep},
		slog.New(slog.DiscardHandler),
	)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	oracle := &fakeOracle{
		stats: screener.TokenStats{Token: "0xabc", PriceUSD: 1.5, LiquidityUSD: 50_000},
		errs:  []error{errors.New("transient"), errors.New("transient")},
	}

	snap, err := testProvider(oracle).Fetch(context.Background(), "0xabc", 100)
	require.NoError(t, err)
	assert.Equal(t, 3, oracle.calls)
	assert.Equal(t, 1.5, snap.PriceUSD)
}

func TestFetchPropagatesFinalError(t *testing.T) {
	oracle := &fakeOracle{
		errs: []error{errors.New("a"), errors.New("b"), domain.ErrRateLimited},
	}

	_, err := testProvider(oracle).Fetch(context.Background(), "0xabc", 100)
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, oracle.calls)
}

func TestFetchEstimatesImpactWhenOracleSilent(t *testing.T) {
	oracle := &fakeOracle{
		stats: screener.TokenStats{Token: "0xabc", PriceUSD: 2, LiquidityUSD: 10_000},
	}

	snap, err := testProvider(oracle).Fetch(context.Background(), "0xabc", 1_000)
	require.NoError(t, err)
	// 1000 / (1000 + 5000)
	assert.InDelta(t, 1.0/6.0, snap.PriceImpactPct, 1e-9)
}

func TestFetchPrefersOracleImpact(t *testing.T) {
	oracle := &fakeOracle{
		stats: screener.TokenStats{Token: "0xabc", PriceUSD: 2, LiquidityUSD: 10_000, PriceImpactPct: 0.03},
	}

	snap, err := testProvider(oracle).Fetch(context.Background(), "0xabc", 1_000)
	require.NoError(t, err)
	assert.Equal(t, 0.03, snap.PriceImpactPct)
}

func TestTrendBookClassification(t *testing.T) {
	book := NewTrendBook(time.Hour)
	base := time.Now()

	for i := 0; i < 6; i++ {
		book.HandleTick(feed.PriceTick{
			Token:     "0xabc",
			PriceUSD:  1.0 + 0.01*float64(i),
			VolumeUSD: 100 * float64(i+1),
			Timestamp: base.Add(time.Duration(i-6) * time.Minute),
		})
	}

	dir, ok := book.PriceTrend("0xabc", time.Hour)
	require.True(t, ok)
	assert.Equal(t, domain.TrendBullish, dir)

	vt, ok := book.VolumeTrend("0xabc", time.Hour)
	require.True(t, ok)
	assert.Equal(t, domain.VolumeIncreasing, vt)

	book.Forget("0xabc")
	_, ok = book.PriceTrend("0xabc", time.Hour)
	assert.False(t, ok)
}

func TestTrendFallbackToOracleChange(t *testing.T) {
	oracle := &fakeOracle{
		stats: screener.TokenStats{
			Token:         "0xabc",
			PriceUSD:      1,
			LiquidityUSD:  100_000,
			PriceChange5m: 0.04,
			PriceChange1h: -0.10,
			Volume1hUSD:   900,
			Volume6hUSD:   1_200,
		},
	}

	snap, err := testProvider(oracle).Fetch(context.Background(), "0xabc", 10)
	require.NoError(t, err)
	assert.Equal(t, domain.TrendBullish, snap.ShortTermTrend)
	assert.Equal(t, domain.TrendBearish, snap.MediumTermTrend)
	assert.Equal(t, domain.VolumeIncreasing, snap.VolumeTrend)
}
