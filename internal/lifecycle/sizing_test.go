package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

func snapWith(short domain.TrendDirection, volume domain.VolumeTrend, confidence float64) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		ShortTermTrend: short,
		VolumeTrend:    volume,
		Confidence:     confidence,
	}
}

func TestPositionSizeMultipliers(t *testing.T) {
	cfg := DefaultSizing()
	cfg.MaxPositionSize = 1000

	tests := []struct {
		name string
		snap domain.MarketSnapshot
		want float64
	}{
		{
			name: "neutral full confidence",
			snap: snapWith(domain.TrendNeutral, domain.VolumeFlat, 1.0),
			want: 100,
		},
		{
			name: "bullish boost clamped to one",
			snap: snapWith(domain.TrendBullish, domain.VolumeIncreasing, 1.0),
			// 1.0 * 1.10 * 1.05 = 1.155, clamped to 1.
			want: 100,
		},
		{
			name: "bullish with partial confidence",
			snap: snapWith(domain.TrendBullish, domain.VolumeFlat, 0.6),
			want: 66, // 0.6 * 1.10
		},
		{
			name: "bearish cut",
			snap: snapWith(domain.TrendBearish, domain.VolumeFlat, 0.8),
			want: 68, // 0.8 * 0.85
		},
		{
			name: "floor at minimum multiplier",
			snap: snapWith(domain.TrendBearish, domain.VolumeFlat, 0.05),
			want: 10, // 0.05 * 0.85 floors at 0.10
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := positionSize(cfg, 100, tt.snap)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPositionSizeClampsToMax(t *testing.T) {
	cfg := DefaultSizing()
	cfg.MaxPositionSize = 50

	got := positionSize(cfg, 100, snapWith(domain.TrendNeutral, domain.VolumeFlat, 1.0))
	assert.Equal(t, 50.0, got)
}

func TestSlippageNeverExceedsCeiling(t *testing.T) {
	cfg := DefaultSizing()

	// The trend boost would push to 120 bps; the ceiling wins.
	got := slippageBps(cfg, 100, snapWith(domain.TrendBullish, domain.VolumeIncreasing, 1.0))
	assert.Equal(t, 100, got)
}

func TestSlippageBearishCut(t *testing.T) {
	cfg := DefaultSizing()

	got := slippageBps(cfg, 100, snapWith(domain.TrendBearish, domain.VolumeFlat, 1.0))
	assert.Equal(t, 70, got)
}

func TestSlippageFloorsAtOne(t *testing.T) {
	cfg := DefaultSizing()

	got := slippageBps(cfg, 1, snapWith(domain.TrendBearish, domain.VolumeFlat, 1.0))
	assert.Equal(t, 1, got)
}
