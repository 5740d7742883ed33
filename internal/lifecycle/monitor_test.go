package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/strategy"
)

type fakePolicy struct {
	mu       sync.Mutex
	decision strategy.Decision
	calls    int
	lastPos  domain.Position
}

func (f *fakePolicy) Evaluate(pos domain.Position, _ domain.MarketSnapshot, _ time.Time) strategy.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPos = pos
	return f.decision
}

func newMonitorHarness(t *testing.T, policy *fakePolicy, execute bool) (*harness, *Monitor) {
	t.Helper()
	h := newHarness(t)
	mon := NewMonitor(h.mgr, h.provider, policy, time.Second, execute, slog.New(slog.DiscardHandler))
	return h, mon
}

func TestTickClosesOnDecision(t *testing.T) {
	policy := &fakePolicy{decision: strategy.Decision{Close: true, Reason: domain.ExitProfitTarget}}
	h, mon := newMonitorHarness(t, policy, true)

	_, err := h.mgr.Enter(context.Background(), buySignal())
	require.NoError(t, err)

	h.provider.setPrice(2.4)
	h.gateway.result = domain.SwapResult{FillPrice: 2.4, AmountOut: 120, VenueRef: "0xtx2"}

	mon.Tick(context.Background())

	assert.Empty(t, h.mgr.OpenPositions())
	require.Len(t, h.store.saved, 1)
	assert.Equal(t, string(domain.ExitProfitTarget), h.store.saved[0].ExitReason)
}

func TestTickHoldsWhenPolicySaysHold(t *testing.T) {
	policy := &fakePolicy{decision: strategy.Decision{Close: false}}
	h, mon := newMonitorHarness(t, policy, true)

	_, err := h.mgr.Enter(context.Background(), buySignal())
	require.NoError(t, err)

	mon.Tick(context.Background())

	assert.Len(t, h.mgr.OpenPositions(), 1)
	assert.Equal(t, 1, policy.calls)
	assert.Empty(t, h.store.saved)
}

func TestTickSkipsLockedInstrument(t *testing.T) {
	policy := &fakePolicy{decision: strategy.Decision{Close: true, Reason: domain.ExitLossLimit}}
	h, mon := newMonitorHarness(t, policy, true)

	_, err := h.mgr.Enter(context.Background(), buySignal())
	require.NoError(t, err)

	release, err := h.locks.Acquire(context.Background(), memeToken)
	require.NoError(t, err)
	defer release()

	fetches := h.provider.calls
	mon.Tick(context.Background())

	// Locked instrument is left alone entirely: no snapshot, no decision.
	assert.Equal(t, fetches, h.provider.calls)
	assert.Equal(t, 0, policy.calls)
	assert.Len(t, h.mgr.OpenPositions(), 1)
}

func TestTickDryRunOnlyReports(t *testing.T) {
	policy := &fakePolicy{decision: strategy.Decision{Close: true, Reason: domain.ExitTimeExpired}}
	h, mon := newMonitorHarness(t, policy, false)

	_, err := h.mgr.Enter(context.Background(), buySignal())
	require.NoError(t, err)

	buys := len(h.gateway.requests)
	mon.Tick(context.Background())

	assert.Len(t, h.mgr.OpenPositions(), 1)
	assert.Len(t, h.gateway.requests, buys, "dry-run must not trade")
	assert.Equal(t, 1, policy.calls)
}

func TestTickSnapshotFailureRetriesNextTick(t *testing.T) {
	policy := &fakePolicy{decision: strategy.Decision{Close: true, Reason: domain.ExitLossLimit}}
	h, mon := newMonitorHarness(t, policy, true)

	_, err := h.mgr.Enter(context.Background(), buySignal())
	require.NoError(t, err)

	h.provider.err = errors.New("oracle down")
	mon.Tick(context.Background())

	assert.Len(t, h.mgr.OpenPositions(), 1)
	assert.Equal(t, 0, policy.calls)

	// Oracle recovers, next tick completes the close.
	h.provider.err = nil
	h.gateway.result = domain.SwapResult{FillPrice: 1.9, AmountOut: 95, VenueRef: "0xtx2"}
	mon.Tick(context.Background())
	assert.Empty(t, h.mgr.OpenPositions())
}

func TestTickFoldsHighWaterBeforeDeciding(t *testing.T) {
	policy := &fakePolicy{decision: strategy.Decision{Close: false}}
	h, mon := newMonitorHarness(t, policy, true)

	_, err := h.mgr.Enter(context.Background(), buySignal())
	require.NoError(t, err)

	h.provider.setPrice(2.7)
	mon.Tick(context.Background())

	// The policy saw the updated high-water mark, not the entry price.
	assert.Equal(t, 2.7, policy.lastPos.HighestPrice)

	view, ok := h.mgr.MarkPrice(memeToken, 0)
	require.True(t, ok)
	assert.Equal(t, 2.7, view.HighestPrice)
}
