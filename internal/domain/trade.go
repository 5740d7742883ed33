package domain

import "time"

// ExitReason names the exit-policy state that closed a position.
type ExitReason string

const (
	ExitTimeExpired  ExitReason = "time_expired"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitProfitTarget ExitReason = "profit_target"
	ExitLossLimit    ExitReason = "loss_limit"
	ExitBreakEven    ExitReason = "break_even"
	ExitManual       ExitReason = "manual"
)

// TradeRecord is the immutable fact describing one completed round trip.
// It is created exactly once, when a position transitions Closing -> Closed,
// and handed to the trade-record store.
type TradeRecord struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	Symbol      string    `json:"symbol"`
	StrategyID  string    `json:"strategy_id"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	AmountIn    float64   `json:"amount_in"`
	AmountOut   float64   `json:"amount_out"`
	PnL         float64   `json:"pnl"` // quote units, amountOut - amountIn
	PnLPercent  float64   `json:"pnl_percent"`
	EntryTxRef  string    `json:"entry_tx_ref"`
	ExitTxRef   string    `json:"exit_tx_ref"`
	EntryReason string    `json:"entry_reason"`
	ExitReason  string    `json:"exit_reason"`
	OpenedAt    time.Time `json:"opened_at"`
	ClosedAt    time.Time `json:"closed_at"`
}
