package market

import (
	"sync"
	"time"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/feed"
)

// trendThreshold is the fractional price move a window must show before it is
// classified as trending rather than neutral.
const trendThreshold = 0.005

// volumeTrendRatio is how much the recent half of a window's volume must
// exceed (or undercut) the older half before volume counts as trending.
const volumeTrendRatio = 1.25

// sample is one retained tick observation.
type sample struct {
	price  float64
	volume float64
	at     time.Time
}

// TrendBook keeps a rolling window of tick samples per token and classifies
// short/medium-term price trends and the volume trend from them. It is fed by
// the websocket tick feed and read by the snapshot provider.
type TrendBook struct {
	mu        sync.RWMutex
	retention time.Duration
	samples   map[string][]sample
	now       func() time.Time
}

// NewTrendBook creates a TrendBook that retains samples for the given window.
func NewTrendBook(retention time.Duration) *TrendBook {
	if retention <= 0 {
		retention = time.Hour
	}
	return &TrendBook{
		retention: retention,
		samples:   make(map[string][]sample),
		now:       time.Now,
	}
}

// HandleTick records a tick. Samples older than the retention window are
// dropped on the way in.
func (b *TrendBook) HandleTick(tick feed.PriceTick) {
	at := tick.Timestamp
	if at.IsZero() {
		at = b.now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.retention)
	kept := b.samples[tick.Token][:0]
	for _, s := range b.samples[tick.Token] {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}
	b.samples[tick.Token] = append(kept, sample{
		price:  tick.PriceUSD,
		volume: tick.VolumeUSD,
		at:     at,
	})
}

// Forget drops all samples for a token, typically after its position closes.
func (b *TrendBook) Forget(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.samples, token)
}

// PriceTrend classifies the price movement over the trailing window. With
// fewer than two samples in the window it returns TrendNeutral and false.
func (b *TrendBook) PriceTrend(token string, window time.Duration) (domain.TrendDirection, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	in := b.windowed(token, window)
	if len(in) < 2 {
		return domain.TrendNeutral, false
	}

	first, last := in[0].price, in[len(in)-1].price
	if first <= 0 {
		return domain.TrendNeutral, false
	}
	change := (last - first) / first
	switch {
	case change >= trendThreshold:
		return domain.TrendBullish, true
	case change <= -trendThreshold:
		return domain.TrendBearish, true
	default:
		return domain.TrendNeutral, true
	}
}

// VolumeTrend compares traded volume between the older and the recent half of
// the trailing window.
func (b *TrendBook) VolumeTrend(token string, window time.Duration) (domain.VolumeTrend, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	in := b.windowed(token, window)
	if len(in) < 4 {
		return domain.VolumeFlat, false
	}

	mid := b.now().Add(-window / 2)
	var older, recent float64
	for _, s := range in {
		if s.at.Before(mid) {
			older += s.volume
		} else {
			recent += s.volume
		}
	}
	if older <= 0 {
		if recent > 0 {
			return domain.VolumeIncreasing, true
		}
		return domain.VolumeFlat, true
	}

	ratio := recent / older
	switch {
	case ratio >= volumeTrendRatio:
		return domain.VolumeIncreasing, true
	case ratio <= 1/volumeTrendRatio:
		return domain.VolumeDecreasing, true
	default:
		return domain.VolumeFlat, true
	}
}

// windowed returns samples within the trailing window. Caller holds b.mu.
func (b *TrendBook) windowed(token string, window time.Duration) []sample {
	all := b.samples[token]
	cutoff := b.now().Add(-window)
	i := 0
	for i < len(all) && !all[i].at.After(cutoff) {
		i++
	}
	return all[i:]
}
