package domain

// SwapSide is the direction of a swap relative to the quote asset.
type SwapSide string

const (
	SwapSideBuy  SwapSide = "buy"
	SwapSideSell SwapSide = "sell"
)

// SwapRequest describes one swap leg for the execution gateway.
type SwapRequest struct {
	InputToken  string
	OutputToken string
	Amount      float64 // input units
	SlippageBps int
}

// SwapResult is the venue's answer to an executed swap. A result without a
// fill price or venue reference is treated as a failed execution even when
// the call itself returned no error.
type SwapResult struct {
	FillPrice float64
	AmountOut float64
	VenueRef  string // venue transaction reference for the leg
}

// Complete reports whether the venue returned the fields a fill must carry.
func (r SwapResult) Complete() bool {
	return r.FillPrice > 0 && r.VenueRef != ""
}
