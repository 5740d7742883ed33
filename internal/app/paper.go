package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/lifecycle"
)

// paperGateway simulates venue fills at the current oracle price so monitor
// mode can run the whole lifecycle without spending funds. Fills are assumed
// perfect: no slippage, no fees, and the quoted price is always available.
type paperGateway struct {
	snapshots  lifecycle.SnapshotProvider
	quoteToken string
}

var _ lifecycle.ExecutionGateway = (*paperGateway)(nil)

func newPaperGateway(snapshots lifecycle.SnapshotProvider, quoteToken string) *paperGateway {
	return &paperGateway{snapshots: snapshots, quoteToken: quoteToken}
}

func (p *paperGateway) Swap(ctx context.Context, req domain.SwapRequest) (domain.SwapResult, error) {
	// Buy legs spend the quote token; either way the priced asset is the
	// non-quote side of the pair.
	buy := req.InputToken == p.quoteToken
	token := req.InputToken
	if buy {
		token = req.OutputToken
	}

	snap, err := p.snapshots.Fetch(ctx, token, req.Amount)
	if err != nil {
		return domain.SwapResult{}, fmt.Errorf("paper gateway: price %s: %w", token, err)
	}
	if snap.PriceUSD <= 0 {
		return domain.SwapResult{}, fmt.Errorf("paper gateway: no price for %s", token)
	}

	out := req.Amount * snap.PriceUSD
	if buy {
		out = req.Amount / snap.PriceUSD
	}
	return domain.SwapResult{
		FillPrice: snap.PriceUSD,
		AmountOut: out,
		VenueRef:  "paper-" + uuid.New().String(),
	}, nil
}
