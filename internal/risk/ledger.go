// Package risk holds the in-memory risk ledger: per-token exposure, the
// available trade budget, and the rolling 24h realized PnL window.
package risk

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

// rollingWindow is how long realized PnL accumulates before the lazy reset.
const rollingWindow = 24 * time.Hour

// Config holds the tunable limits the ledger enforces.
type Config struct {
	// TradeBudget is the quote-unit balance available for entries.
	TradeBudget float64

	// MaxPositionSize caps the quote units committed to one position.
	MaxPositionSize float64

	// MaxDailyLoss is the rolling-24h realized loss floor, as a positive
	// number of quote units.
	MaxDailyLoss float64

	// MaxPriceImpactPct rejects entries whose snapshot impact exceeds it.
	MaxPriceImpactPct float64
}

// Verdict is the outcome of a validation: every violated limit is reported,
// not just the first.
type Verdict struct {
	OK      bool
	Reasons []string
}

type exposure struct {
	amount   float64
	openedAt time.Time
}

// Ledger tracks open exposure and realized PnL. All methods are safe for
// concurrent use.
type Ledger struct {
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	available   float64
	open        map[string]exposure
	reserved    map[string]float64
	rollingPnL  float64
	windowStart time.Time

	now func() time.Time
}

// NewLedger creates a Ledger with the full budget available.
func NewLedger(cfg Config, logger *slog.Logger) *Ledger {
	l := &Ledger{
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "risk_ledger")),
		available: cfg.TradeBudget,
		open:      make(map[string]exposure),
		reserved:  make(map[string]float64),
		now:       time.Now,
	}
	l.windowStart = l.now()
	return l
}

// SetClock replaces the time source. Tests only.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// SeedPnL primes the rolling window, e.g. from persisted trade history on
// restart, so a process bounce does not forget the day's losses.
func (l *Ledger) SeedPnL(pnl float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollingPnL = pnl
	l.windowStart = l.now()
}

// Validate checks a candidate entry against every limit independently and
// returns all violations. The rolling PnL window is lazily reset here when it
// has elapsed.
func (l *Ledger) Validate(token string, amount float64, snap domain.MarketSnapshot) Verdict {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.validateLocked(token, amount, snap)
}

// Reserve validates like Validate and, when every check passes, debits the
// requested amount from the budget in the same critical section, so two
// concurrent candidates cannot both be approved against the same balance.
// Open settles the reservation at the executed size; Release returns it after
// a failed entry.
func (l *Ledger) Reserve(token string, amount float64, snap domain.MarketSnapshot) Verdict {
	l.mu.Lock()
	defer l.mu.Unlock()
	verdict := l.validateLocked(token, amount, snap)
	if verdict.OK {
		l.reserved[token] = amount
		l.available -= amount
	}
	return verdict
}

// Release returns token's reservation to the budget. No-op without one.
func (l *Ledger) Release(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount, held := l.reserved[token]; held {
		delete(l.reserved, token)
		l.available += amount
	}
}

// validateLocked collects every violated limit. Caller must hold l.mu.
func (l *Ledger) validateLocked(token string, amount float64, snap domain.MarketSnapshot) Verdict {
	l.maybeResetWindow()

	var reasons []string

	if amount > l.available {
		reasons = append(reasons, fmt.Sprintf("insufficient balance: need %.2f, have %.2f", amount, l.available))
	}
	if amount > l.cfg.MaxPositionSize {
		reasons = append(reasons, fmt.Sprintf("amount %.2f exceeds max position size %.2f", amount, l.cfg.MaxPositionSize))
	}
	_, opened := l.open[token]
	_, held := l.reserved[token]
	if opened || held {
		reasons = append(reasons, fmt.Sprintf("token %s already has open exposure", token))
	}
	if l.rollingPnL <= -l.cfg.MaxDailyLoss {
		reasons = append(reasons, fmt.Sprintf("daily loss limit breached: %.2f <= -%.2f", l.rollingPnL, l.cfg.MaxDailyLoss))
	}
	if l.cfg.MaxPriceImpactPct > 0 && snap.PriceImpactPct > l.cfg.MaxPriceImpactPct {
		reasons = append(reasons, fmt.Sprintf("price impact %.4f exceeds ceiling %.4f", snap.PriceImpactPct, l.cfg.MaxPriceImpactPct))
	}

	return Verdict{OK: len(reasons) == 0, Reasons: reasons}
}

// Open records a new exposure. A prior reservation is settled against the
// executed amount, crediting back the unspent remainder; without one the full
// amount is debited.
func (l *Ledger) Open(token string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if res, held := l.reserved[token]; held {
		delete(l.reserved, token)
		l.available += res - amount
	} else {
		l.available -= amount
	}
	l.open[token] = exposure{amount: amount, openedAt: l.now()}
}

// Close removes the exposure, credits the proceeds back to the budget, and
// folds realized PnL into the rolling window.
func (l *Ledger) Close(token string, realizedPnL float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybeResetWindow()

	exp, exists := l.open[token]
	if !exists {
		l.logger.Warn("close for unknown exposure", slog.String("token", token))
		return
	}
	delete(l.open, token)
	l.available += exp.amount + realizedPnL
	l.rollingPnL += realizedPnL
}

// OpenCount returns the number of tokens with open exposure.
func (l *Ledger) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.open)
}

// RollingPnL returns the realized PnL accumulated in the current window.
func (l *Ledger) RollingPnL() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maybeResetWindow()
	return l.rollingPnL
}

// Available returns the uncommitted trade budget.
func (l *Ledger) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

// maybeResetWindow zeroes the rolling PnL the first time it is touched after
// the 24h window has elapsed. Caller must hold l.mu.
func (l *Ledger) maybeResetWindow() {
	now := l.now()
	if now.Sub(l.windowStart) >= rollingWindow {
		if l.rollingPnL != 0 {
			l.logger.Info("rolling pnl window reset",
				slog.Float64("previous_pnl", l.rollingPnL),
			)
		}
		l.rollingPnL = 0
		l.windowStart = now
	}
}
