// Package strategy holds the exit decision engine: a pure function of a
// position and its latest market snapshot.
package strategy

import (
	"time"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

// ExitConfig holds the thresholds driving exit decisions. Percentages are
// fractional: 0.015 means 1.5%.
type ExitConfig struct {
	MaxHoldTime      time.Duration
	TrailingStopPct  float64
	MinProfitPct     float64
	MaxLossPct       float64
	RoundTripCost    float64 // estimated gas+fees per round trip, quote units
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Close  bool
	Reason domain.ExitReason
}

var hold = Decision{}

// ExitPolicy evaluates whether a position should close. Rules run in fixed
// priority order and the first match wins, so the terminal reasons are
// mutually exclusive per evaluation.
type ExitPolicy struct {
	cfg ExitConfig
}

// NewExitPolicy creates an ExitPolicy with the given thresholds.
func NewExitPolicy(cfg ExitConfig) *ExitPolicy {
	return &ExitPolicy{cfg: cfg}
}

// Evaluate decides the position's fate at the snapshot's price. The caller
// must have folded the snapshot price into pos.HighestPrice beforehand
// (Manager.MarkPrice does this); Evaluate itself never mutates anything.
//
// Priority: time expiry overrides everything, including profitability; the
// trailing stop only arms while the position is profitable; break-even is the
// weakest rule and fires last.
func (ep *ExitPolicy) Evaluate(pos domain.Position, snap domain.MarketSnapshot, now time.Time) Decision {
	price := snap.PriceUSD
	pnl := pos.PnLPercent(price)

	// 1. Time expiry, unconditional.
	if ep.cfg.MaxHoldTime > 0 && pos.HoldTime(now) >= ep.cfg.MaxHoldTime {
		return Decision{Close: true, Reason: domain.ExitTimeExpired}
	}

	// 2. Trailing stop, armed only in profit.
	if pnl > 0 && pos.HighestPrice > 0 {
		drawdown := (pos.HighestPrice - price) / pos.HighestPrice
		if drawdown >= ep.cfg.TrailingStopPct {
			return Decision{Close: true, Reason: domain.ExitTrailingStop}
		}
	}

	// 3. Profit target.
	if pnl >= ep.cfg.MinProfitPct {
		return Decision{Close: true, Reason: domain.ExitProfitTarget}
	}

	// 4. Loss limit.
	if pnl <= -ep.cfg.MaxLossPct {
		return Decision{Close: true, Reason: domain.ExitLossLimit}
	}

	// 5. Break-even: price covers entry plus the estimated round-trip cost.
	if pos.AmountIn > 0 && ep.cfg.RoundTripCost > 0 {
		breakEven := pos.EntryPrice * (1 + ep.cfg.RoundTripCost/pos.AmountIn)
		if price >= breakEven {
			return Decision{Close: true, Reason: domain.ExitBreakEven}
		}
	}

	return hold
}
