package lifecycle

import "github.com/alanyoungcy/swapsniper/internal/domain"

// SizingConfig holds the multiplier knobs for dynamic position sizing and
// slippage tolerance. The exact constants are tunable, not load-bearing; the
// clamps are what keeps them safe.
type SizingConfig struct {
	MaxPositionSize float64

	BullishBoost  float64 // size multiplier under bullish short-term trend
	BearishCut    float64 // size multiplier under bearish short-term trend
	VolumeBoost   float64 // size multiplier when volume is increasing
	MinMultiplier float64 // floor for the combined multiplier

	SlippageTrendBoost float64 // slippage multiplier under strong trending volume
	SlippageBearishCut float64 // slippage multiplier under bearish conditions
}

// DefaultSizing returns the stock multiplier set.
func DefaultSizing() SizingConfig {
	return SizingConfig{
		BullishBoost:       1.10,
		BearishCut:         0.85,
		VolumeBoost:        1.05,
		MinMultiplier:      0.10,
		SlippageTrendBoost: 1.20,
		SlippageBearishCut: 0.70,
	}
}

// positionSize computes the quote units to commit: the requested amount
// scaled by the snapshot's confidence score, adjusted multiplicatively by
// momentum, then clamped to the configured ceiling.
func positionSize(cfg SizingConfig, requested float64, snap domain.MarketSnapshot) float64 {
	multiplier := snap.Confidence

	switch snap.ShortTermTrend {
	case domain.TrendBullish:
		multiplier *= cfg.BullishBoost
	case domain.TrendBearish:
		multiplier *= cfg.BearishCut
	}
	if snap.VolumeTrend == domain.VolumeIncreasing {
		multiplier *= cfg.VolumeBoost
	}

	if multiplier < cfg.MinMultiplier {
		multiplier = cfg.MinMultiplier
	}
	if multiplier > 1 {
		multiplier = 1
	}

	size := requested * multiplier
	if cfg.MaxPositionSize > 0 && size > cfg.MaxPositionSize {
		size = cfg.MaxPositionSize
	}
	return size
}

// slippageBps computes the swap slippage tolerance: the configured ceiling
// scaled up under strong trending conditions and down under bearish ones.
// The final clamp to maxBps is load-bearing: the boost multiplier would
// otherwise push past the ceiling.
func slippageBps(cfg SizingConfig, maxBps int, snap domain.MarketSnapshot) int {
	bps := float64(maxBps)

	if snap.ShortTermTrend == domain.TrendBullish && snap.VolumeTrend == domain.VolumeIncreasing {
		bps *= cfg.SlippageTrendBoost
	} else if snap.ShortTermTrend == domain.TrendBearish {
		bps *= cfg.SlippageBearishCut
	}

	out := int(bps)
	if out > maxBps {
		out = maxBps
	}
	if out < 1 {
		out = 1
	}
	return out
}
