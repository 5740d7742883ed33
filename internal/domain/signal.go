package domain

import (
	"fmt"
	"time"
)

// BuySignal asks the lifecycle manager to open a position. Signals arrive
// over the signal bus from external scanners or are constructed directly in
// tests and tooling.
type BuySignal struct {
	ID         string  `json:"id"`
	Token      string  `json:"token"`
	Symbol     string  `json:"symbol"`
	StrategyID string  `json:"strategy_id"`
	Amount     float64 `json:"amount"` // quote units to commit
	Reason     string  `json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate reports every malformed field as a single combined error. A
// non-nil result is a programmer error on the producing side and is never
// retried.
func (s BuySignal) Validate() error {
	var problems []string
	if s.Token == "" {
		problems = append(problems, "token is empty")
	}
	if s.Symbol == "" {
		problems = append(problems, "symbol is empty")
	}
	if s.StrategyID == "" {
		problems = append(problems, "strategy_id is empty")
	}
	if s.Amount <= 0 {
		problems = append(problems, fmt.Sprintf("amount must be positive, got %f", s.Amount))
	}
	if len(problems) > 0 {
		return NewTradeError(FailureValidation, nil, problems...)
	}
	return nil
}
