package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/strategy"
)

// ExitEvaluator decides whether a position should close. Implemented by
// strategy.ExitPolicy.
type ExitEvaluator interface {
	Evaluate(pos domain.Position, snap domain.MarketSnapshot, now time.Time) strategy.Decision
}

// Monitor drives exit evaluation for every open position on a fixed period.
// It holds at most one instrument's lock at a time (indirectly, through
// Manager.Exit) and optimistically skips instruments with an in-flight
// enter/exit, retrying them on the next tick.
type Monitor struct {
	mgr       *Manager
	snapshots SnapshotProvider
	policy    ExitEvaluator
	interval  time.Duration
	logger    *slog.Logger

	// execute disabled means dry-run: decisions are logged, not acted on.
	execute bool

	now func() time.Time
}

// NewMonitor creates a Monitor ticking at the given interval. When execute is
// false the monitor only reports what it would do.
func NewMonitor(mgr *Manager, snapshots SnapshotProvider, policy ExitEvaluator, interval time.Duration, execute bool, logger *slog.Logger) *Monitor {
	return &Monitor{
		mgr:       mgr,
		snapshots: snapshots,
		policy:    policy,
		interval:  interval,
		logger:    logger.With(slog.String("component", "monitor")),
		execute:   execute,
		now:       time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (mon *Monitor) SetClock(now func() time.Time) {
	mon.now = now
}

// Run ticks until ctx is cancelled. Tick errors are logged, never fatal: a
// position that could not be evaluated is simply retried on the next tick.
func (mon *Monitor) Run(ctx context.Context) error {
	mon.logger.Info("monitor started", slog.Duration("interval", mon.interval))
	defer mon.logger.Info("monitor stopped")

	ticker := time.NewTicker(mon.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mon.Tick(ctx)
		}
	}
}

// Tick evaluates every open position once. Exported so tests (and tooling)
// can drive the monitor deterministically without wall-clock timers.
func (mon *Monitor) Tick(ctx context.Context) {
	for _, pos := range mon.mgr.OpenPositions() {
		if pos.Status != domain.PositionStatusOpen {
			continue
		}
		// An in-flight enter/exit holds this instrument's lock; don't
		// waste a snapshot fetch racing it.
		if mon.mgr.Locked(pos.Token) {
			mon.logger.Debug("skipping locked instrument", slog.String("token", pos.Token))
			continue
		}
		mon.evaluate(ctx, pos)
	}
}

func (mon *Monitor) evaluate(ctx context.Context, pos domain.Position) {
	log := mon.logger.With(
		slog.String("token", pos.Token),
		slog.String("symbol", pos.Symbol),
	)

	snap, err := mon.snapshots.Fetch(ctx, pos.Token, pos.AmountIn)
	if err != nil {
		log.Warn("snapshot fetch failed, will retry next tick",
			slog.String("error", err.Error()),
		)
		return
	}

	// Fold the observation into the highest-seen price before deciding, so
	// the trailing stop sees the true high even on hold paths.
	view, ok := mon.mgr.MarkPrice(pos.Token, snap.PriceUSD)
	if !ok {
		// Closed between listing and evaluation.
		return
	}

	decision := mon.policy.Evaluate(view, snap, mon.now())
	if !decision.Close {
		return
	}

	if !mon.execute {
		log.Info("dry-run: would close position",
			slog.String("reason", string(decision.Reason)),
			slog.Float64("price", snap.PriceUSD),
			slog.Float64("pnl_percent", view.PnLPercent(snap.PriceUSD)),
		)
		return
	}

	if _, err := mon.mgr.Exit(ctx, pos.Token, decision.Reason); err != nil {
		if domain.IsKind(err, domain.FailureLockConflict) {
			log.Debug("exit lost the lock race, retrying next tick")
			return
		}
		log.Warn("exit failed, retrying next tick",
			slog.String("reason", string(decision.Reason)),
			slog.String("error", err.Error()),
		)
	}
}
