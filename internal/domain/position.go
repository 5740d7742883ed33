package domain

import "time"

// PositionStatus tracks where a position is in its lifecycle.
type PositionStatus string

const (
	PositionStatusOpen    PositionStatus = "open"
	PositionStatusClosing PositionStatus = "closing"
	PositionStatusClosed  PositionStatus = "closed"
)

// Position represents one open exposure on a single token. It is owned
// exclusively by the lifecycle manager: all mutation happens through manager
// methods while the token's execution lock (or the manager's own mutex) is
// held. HighestPrice is monotonically non-decreasing over the position's
// lifetime.
type Position struct {
	ID           string
	Token        string // ERC-20 contract address
	Symbol       string
	StrategyID   string
	EntryPrice   float64
	AmountIn     float64 // quote units committed at entry
	TokenAmount  float64 // base units received at entry
	EntryTime    time.Time
	StopLoss     float64
	TakeProfit   float64
	HighestPrice float64
	EntryTxRef   string
	EntryReason  string
	Status       PositionStatus
}

// PnLPercent returns the fractional unrealized PnL at the given price,
// e.g. 0.015 for +1.5%.
func (p Position) PnLPercent(currentPrice float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (currentPrice - p.EntryPrice) / p.EntryPrice
}

// HoldTime returns how long the position has been open as of now.
func (p Position) HoldTime(now time.Time) time.Duration {
	return now.Sub(p.EntryTime)
}
