// Package lifecycle owns the trade lifecycle: entering positions from buy
// signals, tracking the active set, and exiting when the policy says so.
// All work on one instrument is serialized through the instrument's
// execution lock; the lock is advisory, non-reentrant, and never waited on.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/infra"
	"github.com/alanyoungcy/swapsniper/internal/risk"
)

// Notification event types emitted by the manager.
const (
	EventEntrySucceeded = "entry_succeeded"
	EventEntryFailed    = "entry_failed"
	EventExitSucceeded  = "exit_succeeded"
	EventExitFailed     = "exit_failed"
)

// SnapshotProvider supplies fresh market snapshots.
type SnapshotProvider interface {
	Fetch(ctx context.Context, token string, referenceSize float64) (domain.MarketSnapshot, error)
}

// ExecutionGateway performs swaps on the venue.
type ExecutionGateway interface {
	Swap(ctx context.Context, req domain.SwapRequest) (domain.SwapResult, error)
}

// Notifier delivers operational alerts. Calls are fire-and-forget: the
// manager never blocks its control flow on delivery.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the manager's own tunables. Risk limits live in risk.Config,
// exit thresholds in strategy.ExitConfig.
type Config struct {
	// QuoteToken is the address of the quote asset funding entries.
	QuoteToken string

	MaxConcurrentTrades int
	MaxSlippageBps      int
	RetryAttempts       int
	RetryBaseDelay      time.Duration

	// StopLossPct / TakeProfitPct are recorded on the position at entry so
	// operators can see the computed levels; actual closing is driven by
	// the exit policy.
	StopLossPct   float64
	TakeProfitPct float64

	Sizing SizingConfig
}

// EnterResult carries the full context of a successful entry.
type EnterResult struct {
	Position    domain.Position
	Snapshot    domain.MarketSnapshot
	SlippageBps int
}

// ExitResult carries the completed-trade fact of a successful exit.
type ExitResult struct {
	Record domain.TradeRecord
}

// Manager is the trade lifecycle orchestrator. It owns the active-position
// set exclusively; positions are only mutated through its methods.
type Manager struct {
	cfg       Config
	locks     domain.KeyLocker
	risk      *risk.Ledger
	snapshots SnapshotProvider
	gateway   ExecutionGateway
	records   domain.TradeRecordStore // optional
	notifier  Notifier                // optional
	logger    *slog.Logger
	retry     infra.RetryConfig

	mu      sync.RWMutex
	active  map[string]*domain.Position
	pending map[string]struct{}

	now func() time.Time
}

// NewManager wires a Manager. records and notifier may be nil.
func NewManager(
	cfg Config,
	locks domain.KeyLocker,
	ledger *risk.Ledger,
	snapshots SnapshotProvider,
	gateway ExecutionGateway,
	records domain.TradeRecordStore,
	notifier Notifier,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		cfg:       cfg,
		locks:     locks,
		risk:      ledger,
		snapshots: snapshots,
		gateway:   gateway,
		records:   records,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "lifecycle")),
		retry: infra.RetryConfig{
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryBaseDelay,
		},
		active:  make(map[string]*domain.Position),
		pending: make(map[string]struct{}),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Enter opens a position for the signal. Concurrent duplicate signals for the
// same token resolve to exactly one winner; the losers get a lock-conflict or
// duplicate-position failure. Every failure is a typed *domain.TradeError.
func (m *Manager) Enter(ctx context.Context, sig domain.BuySignal) (EnterResult, error) {
	// Malformed input is a programmer error on the producing side: surfaced
	// before any side effect, never retried.
	if err := sig.Validate(); err != nil {
		return EnterResult{}, err
	}

	log := m.logger.With(
		slog.String("token", sig.Token),
		slog.String("symbol", sig.Symbol),
		slog.String("strategy", sig.StrategyID),
	)

	release, err := m.locks.Acquire(ctx, sig.Token)
	if err != nil {
		return EnterResult{}, m.entryFailure(ctx, log, sig,
			domain.NewTradeError(domain.FailureLockConflict, err))
	}
	defer release()

	// The capacity slot is claimed together with the duplicate check in one
	// critical section, so entries on different tokens that suspend in the
	// swap below cannot both pass the cap.
	if terr := m.reserveSlot(sig.Token); terr != nil {
		return EnterResult{}, m.entryFailure(ctx, log, sig, terr)
	}
	committed := false
	defer func() {
		if !committed {
			m.risk.Release(sig.Token)
			m.releaseSlot(sig.Token)
		}
	}()

	snap, err := m.snapshots.Fetch(ctx, sig.Token, sig.Amount)
	if err != nil {
		return EnterResult{}, m.entryFailure(ctx, log, sig,
			domain.NewTradeError(domain.FailureSnapshot, err))
	}

	// Reserve debits the requested amount from the budget at validation time,
	// so concurrent entries cannot spend the same balance while this swap is
	// in flight. Open settles the reservation at the executed size.
	verdict := m.risk.Reserve(sig.Token, sig.Amount, snap)
	if !verdict.OK {
		return EnterResult{}, m.entryFailure(ctx, log, sig,
			domain.NewTradeError(domain.FailureRisk, nil, verdict.Reasons...))
	}

	size := positionSize(m.cfg.Sizing, sig.Amount, snap)
	slippage := slippageBps(m.cfg.Sizing, m.cfg.MaxSlippageBps, snap)

	result, err := infra.Retry(ctx, m.retry, log, "swap_buy",
		func(ctx context.Context) (domain.SwapResult, error) {
			return m.gateway.Swap(ctx, domain.SwapRequest{
				InputToken:  m.cfg.QuoteToken,
				OutputToken: sig.Token,
				Amount:      size,
				SlippageBps: slippage,
			})
		})
	if err != nil {
		return EnterResult{}, m.entryFailure(ctx, log, sig,
			domain.NewTradeError(domain.FailureExecution, err))
	}
	if !result.Complete() {
		return EnterResult{}, m.entryFailure(ctx, log, sig,
			domain.NewTradeError(domain.FailureExecution, nil,
				"venue response missing fill price or reference"))
	}

	now := m.now()
	pos := &domain.Position{
		ID:           uuid.New().String(),
		Token:        sig.Token,
		Symbol:       sig.Symbol,
		StrategyID:   sig.StrategyID,
		EntryPrice:   result.FillPrice,
		AmountIn:     size,
		TokenAmount:  result.AmountOut,
		EntryTime:    now,
		StopLoss:     result.FillPrice * (1 - m.cfg.StopLossPct),
		TakeProfit:   result.FillPrice * (1 + m.cfg.TakeProfitPct),
		HighestPrice: result.FillPrice,
		EntryTxRef:   result.VenueRef,
		EntryReason:  sig.Reason,
		Status:       domain.PositionStatusOpen,
	}

	m.commitSlot(pos)
	committed = true
	m.risk.Open(sig.Token, size)

	log.Info("position opened",
		slog.String("position_id", pos.ID),
		slog.Float64("entry_price", pos.EntryPrice),
		slog.Float64("amount_in", pos.AmountIn),
		slog.Int("slippage_bps", slippage),
		slog.String("tx", pos.EntryTxRef),
	)
	m.notify(ctx, EventEntrySucceeded, "Position opened",
		fmt.Sprintf("%s at %.8f for %.2f (%s)", sig.Symbol, pos.EntryPrice, pos.AmountIn, sig.Reason))

	return EnterResult{Position: *pos, Snapshot: snap, SlippageBps: slippage}, nil
}

// Exit closes the open position for token. Sell failures never escape as
// panics or lost positions: the position stays in the active set with status
// Open and the caller (typically the monitor) retries on its next tick.
func (m *Manager) Exit(ctx context.Context, token string, reason domain.ExitReason) (ExitResult, error) {
	log := m.logger.With(
		slog.String("token", token),
		slog.String("reason", string(reason)),
	)

	release, err := m.locks.Acquire(ctx, token)
	if err != nil {
		return ExitResult{}, domain.NewTradeError(domain.FailureLockConflict, err)
	}
	defer release()

	m.mu.Lock()
	pos, exists := m.active[token]
	if !exists {
		m.mu.Unlock()
		log.Warn("exit requested for unknown position")
		return ExitResult{}, domain.NewTradeError(domain.FailureNotFound, nil,
			fmt.Sprintf("no open position for %s", token))
	}
	pos.Status = domain.PositionStatusClosing
	posCopy := *pos
	m.mu.Unlock()

	revert := func() {
		m.mu.Lock()
		if p, ok := m.active[token]; ok {
			p.Status = domain.PositionStatusOpen
		}
		m.mu.Unlock()
	}

	snap, err := m.snapshots.Fetch(ctx, token, posCopy.AmountIn)
	if err != nil {
		revert()
		return ExitResult{}, m.exitFailure(ctx, log, posCopy,
			domain.NewTradeError(domain.FailureSnapshot, err))
	}

	slippage := slippageBps(m.cfg.Sizing, m.cfg.MaxSlippageBps, snap)
	result, err := infra.Retry(ctx, m.retry, log, "swap_sell",
		func(ctx context.Context) (domain.SwapResult, error) {
			return m.gateway.Swap(ctx, domain.SwapRequest{
				InputToken:  token,
				OutputToken: m.cfg.QuoteToken,
				Amount:      posCopy.TokenAmount,
				SlippageBps: slippage,
			})
		})
	if err != nil {
		revert()
		return ExitResult{}, m.exitFailure(ctx, log, posCopy,
			domain.NewTradeError(domain.FailureExecution, err))
	}
	if !result.Complete() {
		revert()
		return ExitResult{}, m.exitFailure(ctx, log, posCopy,
			domain.NewTradeError(domain.FailureExecution, nil,
				"venue response missing fill price or reference"))
	}

	now := m.now()
	realized := result.AmountOut - posCopy.AmountIn
	rec := domain.TradeRecord{
		ID:          uuid.New().String(),
		Token:       posCopy.Token,
		Symbol:      posCopy.Symbol,
		StrategyID:  posCopy.StrategyID,
		EntryPrice:  posCopy.EntryPrice,
		ExitPrice:   result.FillPrice,
		AmountIn:    posCopy.AmountIn,
		AmountOut:   result.AmountOut,
		PnL:         realized,
		PnLPercent:  realized / posCopy.AmountIn,
		EntryTxRef:  posCopy.EntryTxRef,
		ExitTxRef:   result.VenueRef,
		EntryReason: posCopy.EntryReason,
		ExitReason:  string(reason),
		OpenedAt:    posCopy.EntryTime,
		ClosedAt:    now,
	}

	// Persistence is best effort: a failed save never rolls back the close,
	// but operators are alerted that a history row was dropped.
	if m.records != nil {
		if err := m.records.Save(ctx, rec); err != nil {
			log.Error("trade record save failed",
				slog.String("trade_id", rec.ID),
				slog.String("error", err.Error()),
			)
			m.notify(ctx, EventExitFailed, "Trade record not persisted",
				fmt.Sprintf("%s closed (trade %s) but the history row was not saved: %v", rec.Symbol, rec.ID, err))
		}
	}

	m.mu.Lock()
	pos.Status = domain.PositionStatusClosed
	delete(m.active, token)
	m.mu.Unlock()
	m.risk.Close(token, realized)

	log.Info("position closed",
		slog.String("position_id", posCopy.ID),
		slog.Float64("exit_price", rec.ExitPrice),
		slog.Float64("pnl", rec.PnL),
		slog.Float64("pnl_percent", rec.PnLPercent),
		slog.String("tx", rec.ExitTxRef),
	)
	m.notify(ctx, EventExitSucceeded, "Position closed",
		fmt.Sprintf("%s pnl %.4f (%.2f%%) reason=%s", rec.Symbol, rec.PnL, rec.PnLPercent*100, reason))

	return ExitResult{Record: rec}, nil
}

// MarkPrice folds a fresh price observation into the position's
// highest-observed price (monotonically non-decreasing) and returns the
// updated view. The bool is false when no position is open for token.
func (m *Manager) MarkPrice(token string, price float64) (domain.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, exists := m.active[token]
	if !exists {
		return domain.Position{}, false
	}
	if price > pos.HighestPrice {
		pos.HighestPrice = price
	}
	return *pos, true
}

// OpenPositions returns a copy of every active position.
func (m *Manager) OpenPositions() []domain.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Position, 0, len(m.active))
	for _, pos := range m.active {
		out = append(out, *pos)
	}
	return out
}

// Locked reports whether token's execution lock is currently held.
func (m *Manager) Locked(token string) bool {
	return m.locks.Held(token)
}

// reserveSlot claims a concurrency slot for token. Pending reservations count
// against the cap alongside open positions, which keeps the cap intact across
// the suspension points between this check and the insert in commitSlot.
func (m *Manager) reserveSlot(token string) *domain.TradeError {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.active[token]; exists {
		return domain.NewTradeError(domain.FailureDuplicate, nil,
			fmt.Sprintf("position already open for %s", token))
	}
	if len(m.active)+len(m.pending) >= m.cfg.MaxConcurrentTrades {
		return domain.NewTradeError(domain.FailureCapacity, nil,
			fmt.Sprintf("open positions at cap %d", m.cfg.MaxConcurrentTrades))
	}
	m.pending[token] = struct{}{}
	return nil
}

// releaseSlot frees a reservation after a failed entry.
func (m *Manager) releaseSlot(token string) {
	m.mu.Lock()
	delete(m.pending, token)
	m.mu.Unlock()
}

// commitSlot converts token's reservation into an active position.
func (m *Manager) commitSlot(pos *domain.Position) {
	m.mu.Lock()
	delete(m.pending, pos.Token)
	m.active[pos.Token] = pos
	m.mu.Unlock()
}

func (m *Manager) entryFailure(ctx context.Context, log *slog.Logger, sig domain.BuySignal, te *domain.TradeError) error {
	log.Warn("entry failed",
		slog.String("kind", string(te.Kind)),
		slog.String("error", te.Error()),
	)
	// Lock conflicts and duplicates are routine racing; don't page anyone.
	if te.Kind != domain.FailureLockConflict && te.Kind != domain.FailureDuplicate {
		m.notify(ctx, EventEntryFailed, "Entry failed",
			fmt.Sprintf("%s: %s", sig.Symbol, te.Error()))
	}
	return te
}

func (m *Manager) exitFailure(ctx context.Context, log *slog.Logger, pos domain.Position, te *domain.TradeError) error {
	log.Warn("exit failed, will retry on next tick",
		slog.String("kind", string(te.Kind)),
		slog.String("error", te.Error()),
	)
	m.notify(ctx, EventExitFailed, "Exit failed",
		fmt.Sprintf("%s: %s", pos.Symbol, te.Error()))
	return te
}

// notify dispatches an alert without blocking the lifecycle control flow.
func (m *Manager) notify(_ context.Context, event, title, message string) {
	if m.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.notifier.Notify(ctx, event, title, message); err != nil {
			m.logger.Warn("notification failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}()
}
