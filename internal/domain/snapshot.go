package domain

import "time"

// TrendDirection classifies recent price movement.
type TrendDirection string

const (
	TrendBullish TrendDirection = "bullish"
	TrendBearish TrendDirection = "bearish"
	TrendNeutral TrendDirection = "neutral"
)

// VolumeTrend classifies recent traded-volume movement.
type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "increasing"
	VolumeDecreasing VolumeTrend = "decreasing"
	VolumeFlat       VolumeTrend = "flat"
)

// MarketSnapshot is an immutable view of a token's market state at a point in
// time, assembled from the screener oracle and the live tick feed. It is
// consumed once per decision point and never persisted.
type MarketSnapshot struct {
	Token        string
	PriceUSD     float64
	LiquidityUSD float64

	// PriceImpactPct is the estimated fractional price move caused by
	// executing the reference size against current liquidity.
	PriceImpactPct float64

	ShortTermTrend  TrendDirection // ~5 minute window
	MediumTermTrend TrendDirection // ~1 hour window
	VolumeTrend     VolumeTrend

	// Confidence is a 0..1 score of how favourable overall market
	// conditions look for entering.
	Confidence float64

	FetchedAt time.Time
}
