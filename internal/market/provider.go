// Package market assembles MarketSnapshots from the screener oracle and the
// live tick feed's trend windows, with bounded retry around oracle calls.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/infra"
	"github.com/alanyoungcy/swapsniper/internal/platform/screener"
)

const (
	shortWindow  = 5 * time.Minute
	mediumWindow = time.Hour
)

// Oracle is the subset of the screener client the provider needs.
type Oracle interface {
	TokenStats(ctx context.Context, token string) (screener.TokenStats, error)
}

// Provider implements snapshot fetching for the lifecycle manager.
type Provider struct {
	oracle Oracle
	trends *TrendBook
	retry  infra.RetryConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewProvider creates a Provider. trends may be shared with the tick feed.
func NewProvider(oracle Oracle, trends *TrendBook, retry infra.RetryConfig, logger *slog.Logger) *Provider {
	return &Provider{
		oracle: oracle,
		trends: trends,
		retry:  retry,
		logger: logger.With(slog.String("component", "snapshot_provider")),
		now:    time.Now,
	}
}

// Fetch returns a fresh snapshot for token, sized for referenceSize quote
// units. Oracle failures are retried with exponential backoff; the final
// attempt's error propagates to the caller.
func (p *Provider) Fetch(ctx context.Context, token string, referenceSize float64) (domain.MarketSnapshot, error) {
	stats, err := infra.Retry(ctx, p.retry, p.logger, "token_stats",
		func(ctx context.Context) (screener.TokenStats, error) {
			return p.oracle.TokenStats(ctx, token)
		})
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("market: fetch stats for %s: %w", token, err)
	}

	snap := domain.MarketSnapshot{
		Token:          token,
		PriceUSD:       stats.PriceUSD,
		LiquidityUSD:   stats.LiquidityUSD,
		PriceImpactPct: stats.PriceImpactPct,
		FetchedAt:      p.now(),
	}
	if snap.PriceImpactPct == 0 {
		snap.PriceImpactPct = estimateImpact(referenceSize, stats.LiquidityUSD)
	}

	snap.ShortTermTrend = p.priceTrend(token, shortWindow, stats.PriceChange5m)
	snap.MediumTermTrend = p.priceTrend(token, mediumWindow, stats.PriceChange1h)
	snap.VolumeTrend = p.volumeTrend(token, mediumWindow, stats)
	snap.Confidence = confidence(snap)

	return snap, nil
}

// priceTrend prefers the live window; when it is too thin it falls back to
// the oracle's own change figure.
func (p *Provider) priceTrend(token string, window time.Duration, oracleChange float64) domain.TrendDirection {
	if dir, ok := p.trends.PriceTrend(token, window); ok {
		return dir
	}
	switch {
	case oracleChange >= trendThreshold:
		return domain.TrendBullish
	case oracleChange <= -trendThreshold:
		return domain.TrendBearish
	default:
		return domain.TrendNeutral
	}
}

func (p *Provider) volumeTrend(token string, window time.Duration, stats screener.TokenStats) domain.VolumeTrend {
	if vt, ok := p.trends.VolumeTrend(token, window); ok {
		return vt
	}
	// Fallback: compare the last hour against the 6h hourly average.
	if stats.Volume6hUSD <= 0 {
		return domain.VolumeFlat
	}
	hourlyAvg := stats.Volume6hUSD / 6
	switch {
	case stats.Volume1hUSD >= hourlyAvg*volumeTrendRatio:
		return domain.VolumeIncreasing
	case stats.Volume1hUSD <= hourlyAvg/volumeTrendRatio:
		return domain.VolumeDecreasing
	default:
		return domain.VolumeFlat
	}
}

// estimateImpact approximates constant-product price impact for a size traded
// against half the pooled liquidity.
func estimateImpact(size, liquidityUSD float64) float64 {
	if liquidityUSD <= 0 {
		return 1
	}
	half := liquidityUSD / 2
	return size / (size + half)
}

// confidence folds the snapshot's qualitative signals into a 0..1 score used
// as the base sizing multiplier.
func confidence(snap domain.MarketSnapshot) float64 {
	score := 0.5
	switch snap.ShortTermTrend {
	case domain.TrendBullish:
		score += 0.2
	case domain.TrendBearish:
		score -= 0.2
	}
	switch snap.MediumTermTrend {
	case domain.TrendBullish:
		score += 0.1
	case domain.TrendBearish:
		score -= 0.1
	}
	switch snap.VolumeTrend {
	case domain.VolumeIncreasing:
		score += 0.1
	case domain.VolumeDecreasing:
		score -= 0.1
	}
	if snap.PriceImpactPct > 0.05 {
		score -= 0.1
	}
	if score < 0.1 {
		score = 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}
