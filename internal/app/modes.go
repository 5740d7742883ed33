package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/swapsniper/internal/domain"
	"github.com/alanyoungcy/swapsniper/internal/feed"
	"github.com/alanyoungcy/swapsniper/internal/history"
	"github.com/alanyoungcy/swapsniper/internal/infra"
	"github.com/alanyoungcy/swapsniper/internal/lifecycle"
	"github.com/alanyoungcy/swapsniper/internal/locks"
	"github.com/alanyoungcy/swapsniper/internal/market"
	"github.com/alanyoungcy/swapsniper/internal/platform/router"
	"github.com/alanyoungcy/swapsniper/internal/platform/screener"
	"github.com/alanyoungcy/swapsniper/internal/risk"
	"github.com/alanyoungcy/swapsniper/internal/strategy"
	"github.com/alanyoungcy/swapsniper/internal/wallet"
)

// trendRetention is how much tick history the trend book keeps per token.
const trendRetention = 30 * time.Minute

// TradeMode runs the full lifecycle: signal consumption, entries, the exit
// monitor, the tick feed, and the history archiver.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	w, err := wallet.Load(wallet.KeyConfig{
		RawPrivateKey:    a.cfg.Wallet.PrivateKey,
		EncryptedKeyPath: a.cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      a.cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return fmt.Errorf("app: load wallet: %w", err)
	}
	a.logger.Info("wallet loaded", slog.String("address", w.Address().Hex()))

	trends := market.NewTrendBook(trendRetention)
	provider := a.buildProvider(trends)
	ledger, err := a.buildLedger(ctx, deps)
	if err != nil {
		return err
	}

	gateway := router.NewClient(a.cfg.Router.BaseURL, a.cfg.Router.APIKey, w.Address())
	keyLock := locks.NewKeyLock()

	mgr := lifecycle.NewManager(a.lifecycleConfig(), keyLock, ledger, provider, gateway, deps.Records, deps.Notifier, a.logger)

	monitor := lifecycle.NewMonitor(mgr, provider, a.exitPolicy(), a.cfg.Trading.MonitorInterval.Duration, true, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Screener.WsURL != "" {
		tickFeed := feed.NewTickFeed(a.cfg.Screener.WsURL, trends.HandleTick, a.logger)
		g.Go(func() error { return tickFeed.Run(ctx) })
		g.Go(func() error { return a.syncWatches(ctx, mgr, tickFeed, trends) })
	}

	g.Go(func() error { return monitor.Run(ctx) })
	g.Go(func() error { return a.consumeSignals(ctx, deps, mgr) })

	if deps.Blobs != nil && deps.Records != nil {
		archiver := history.NewArchiver(deps.Records, deps.Blobs,
			a.cfg.Archive.Retention.Duration, a.cfg.Archive.Interval.Duration, a.logger)
		g.Go(func() error { return archiver.Run(ctx) })
	}

	return g.Wait()
}

// MonitorMode runs the same lifecycle as trade mode against a simulated
// execution gateway: entries and exits are paper fills at the oracle price,
// tracked and logged but never sent to the venue, persisted, or alerted as
// real trades. No wallet is needed.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode, fills are simulated")

	trends := market.NewTrendBook(trendRetention)
	provider := a.buildProvider(trends)
	ledger, err := a.buildLedger(ctx, deps)
	if err != nil {
		return err
	}

	gateway := newPaperGateway(provider, a.cfg.Trading.QuoteToken)
	keyLock := locks.NewKeyLock()

	mgr := lifecycle.NewManager(a.lifecycleConfig(), keyLock, ledger, provider, gateway, nil, nil, a.logger)
	monitor := lifecycle.NewMonitor(mgr, provider, a.exitPolicy(), a.cfg.Trading.MonitorInterval.Duration, true, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Screener.WsURL != "" {
		tickFeed := feed.NewTickFeed(a.cfg.Screener.WsURL, trends.HandleTick, a.logger)
		g.Go(func() error { return tickFeed.Run(ctx) })
		g.Go(func() error { return a.syncWatches(ctx, mgr, tickFeed, trends) })
	}

	g.Go(func() error { return monitor.Run(ctx) })
	g.Go(func() error { return a.consumeSignals(ctx, deps, mgr) })

	return g.Wait()
}

// consumeSignals feeds bus signals into the manager. Routine rejections (risk
// limits, duplicates, races) are expected; consecutive venue or oracle
// failures indicate systemic trouble and terminate the process after alerting.
func (a *App) consumeSignals(ctx context.Context, deps *Dependencies, mgr *lifecycle.Manager) error {
	signals, err := deps.Bus.Subscribe(ctx, a.cfg.Redis.SignalChannel)
	if err != nil {
		return fmt.Errorf("app: subscribe %s: %w", a.cfg.Redis.SignalChannel, err)
	}
	a.logger.Info("signal consumer started", slog.String("channel", a.cfg.Redis.SignalChannel))

	var consecutive int
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-signals:
			if !ok {
				return fmt.Errorf("app: signal channel closed")
			}
			sig, err := decodeSignal(payload)
			if err != nil {
				a.logger.Warn("discarding malformed signal", slog.String("error", err.Error()))
				continue
			}

			_, err = mgr.Enter(ctx, sig)
			switch {
			case err == nil:
				consecutive = 0
			case domain.IsKind(err, domain.FailureExecution), domain.IsKind(err, domain.FailureSnapshot):
				consecutive++
				a.logger.Warn("entry failed",
					slog.String("token", sig.Token),
					slog.Int("consecutive_failures", consecutive),
					slog.String("error", err.Error()),
				)
				if consecutive >= a.cfg.Trading.MaxConsecutiveFailures {
					msg := fmt.Sprintf("%d consecutive entry failures, terminating", consecutive)
					if nerr := deps.Notifier.NotifyAll(ctx, "Bot terminating", msg); nerr != nil {
						a.logger.Error("failed to deliver fatal alert", slog.String("error", nerr.Error()))
					}
					return fmt.Errorf("app: %s", msg)
				}
			default:
				// Validation, risk, capacity, and race rejections are part
				// of normal operation.
			}
		}
	}
}

// syncWatches keeps the tick feed subscribed to exactly the open positions'
// tokens so the trend book only accumulates history we will use.
func (a *App) syncWatches(ctx context.Context, mgr *lifecycle.Manager, tickFeed *feed.TickFeed, trends *market.TrendBook) error {
	ticker := time.NewTicker(a.cfg.Trading.MonitorInterval.Duration)
	defer ticker.Stop()

	watched := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			open := make(map[string]bool)
			for _, pos := range mgr.OpenPositions() {
				open[pos.Token] = true
				if !watched[pos.Token] {
					tickFeed.Watch(pos.Token)
					watched[pos.Token] = true
				}
			}
			for token := range watched {
				if !open[token] {
					tickFeed.Unwatch(token)
					trends.Forget(token)
					delete(watched, token)
				}
			}
		}
	}
}

func (a *App) buildProvider(trends *market.TrendBook) *market.Provider {
	oracle := screener.NewClient(a.cfg.Screener.BaseURL, a.cfg.Screener.APIKey)
	return market.NewProvider(oracle, trends, infra.RetryConfig{
		Attempts:  a.cfg.Trading.RetryAttempts,
		BaseDelay: a.cfg.Trading.RetryBaseDelay.Duration,
	}, a.logger)
}

// buildLedger creates the risk ledger, seeded from persisted history so a
// restart does not forget the day's losses.
func (a *App) buildLedger(ctx context.Context, deps *Dependencies) (*risk.Ledger, error) {
	ledger := risk.NewLedger(risk.Config{
		TradeBudget:       a.cfg.Trading.TradeBudget,
		MaxPositionSize:   a.cfg.Trading.MaxPositionSize,
		MaxDailyLoss:      a.cfg.Trading.MaxDailyLoss,
		MaxPriceImpactPct: a.cfg.Trading.MaxPriceImpactPercent,
	}, a.logger)

	if deps.Records != nil {
		pnl, err := deps.Records.SumPnL(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			return nil, fmt.Errorf("app: seed rolling pnl: %w", err)
		}
		ledger.SeedPnL(pnl)
		a.logger.Info("risk ledger seeded", slog.Float64("rolling_pnl", pnl))
	}
	return ledger, nil
}

func (a *App) exitPolicy() *strategy.ExitPolicy {
	return strategy.NewExitPolicy(strategy.ExitConfig{
		MaxHoldTime:     a.cfg.Trading.MaxHoldTime.Duration,
		TrailingStopPct: a.cfg.Trading.TrailingStopPercent,
		MinProfitPct:    a.cfg.Trading.MinProfitPercent,
		MaxLossPct:      a.cfg.Trading.MaxLossPercent,
		RoundTripCost:   a.cfg.Trading.RoundTripCost,
	})
}

func (a *App) lifecycleConfig() lifecycle.Config {
	sizing := lifecycle.DefaultSizing()
	sizing.MaxPositionSize = a.cfg.Trading.MaxPositionSize

	return lifecycle.Config{
		QuoteToken:          a.cfg.Trading.QuoteToken,
		MaxConcurrentTrades: a.cfg.Trading.MaxConcurrentTrades,
		MaxSlippageBps:      a.cfg.Trading.MaxSlippageBps,
		RetryAttempts:       a.cfg.Trading.RetryAttempts,
		RetryBaseDelay:      a.cfg.Trading.RetryBaseDelay.Duration,
		StopLossPct:         a.cfg.Trading.MaxLossPercent,
		TakeProfitPct:       a.cfg.Trading.MinProfitPercent,
		Sizing:              sizing,
	}
}

func decodeSignal(payload []byte) (domain.BuySignal, error) {
	var sig domain.BuySignal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return domain.BuySignal{}, fmt.Errorf("decode buy signal: %w", err)
	}
	return sig, nil
}
