// Package live runs the trading loop: one fetch-decide-act cycle per
// tick, strictly sequential, never pipelined. All blocking I/O happens
// here; the engine's pure functions run between fetch and act.
package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"futbot/broker"
	"futbot/config"
	"futbot/engine"
	"futbot/journal"
	"futbot/market"
	"futbot/notify"
	"futbot/pkg/id"
	"futbot/pkg/logger"
	"futbot/risk"
)

// Trader owns one instrument's loop and the state that survives across
// cycles: the engine's position and the daily loss accumulator.
type Trader struct {
	cfg      *config.Config
	broker   broker.Broker
	eng      *engine.Engine
	daily    *risk.DailyAccumulator
	journal  journal.Journal
	notifier notify.Notifier

	openTradeID string
	stopOrderID string
	tpOrderID   string
	now         func() time.Time
}

// New wires a Trader. The engine and trader share the daily
// accumulator: the engine reads it as an entry gate, the trader feeds
// realized losses into it when positions close.
func New(cfg *config.Config, b broker.Broker, j journal.Journal, n notify.Notifier) *Trader {
	daily := &risk.DailyAccumulator{}
	return &Trader{
		cfg:      cfg,
		broker:   b,
		eng:      engine.New(cfg.RiskPolicy(), cfg.IndicatorSettings(), daily),
		daily:    daily,
		journal:  j,
		notifier: n,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes cycles until the context is cancelled. A failed cycle is
// logged and the loop continues; nothing in a cycle is fatal to the
// process.
func (t *Trader) Run(ctx context.Context) error {
	interval := time.Duration(t.cfg.Trading.PollSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("trading loop started",
		zap.String("symbol", t.cfg.Trading.Symbol),
		zap.String("interval", t.cfg.Trading.Interval),
		zap.Duration("poll", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("trading loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := t.Cycle(ctx); err != nil {
				logger.Error("cycle failed", zap.Error(err))
			}
		}
	}
}

// Cycle runs one fetch-decide-act pass. It returns an error only for
// collaborator failures (fetch, journal); engine gate failures are
// ordinary NoTrade decisions and are just logged.
func (t *Trader) Cycle(ctx context.Context) error {
	now := t.now()

	candles, err := t.broker.Candles(ctx, t.cfg.Trading.Symbol, t.cfg.Trading.Interval, t.cfg.Trading.WindowSize)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles returned")
	}
	last := candles[len(candles)-1]

	if t.eng.Position() != nil {
		return t.managePosition(ctx, now, last)
	}

	equity, err := t.broker.Balance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	intent, decision := t.eng.Evaluate(now, equity, candles)
	logger.Debug("cycle evaluated",
		zap.String("code", decision.Code),
		zap.String("reason", decision.Reason),
		zap.Float64("close", last.Close))
	if intent == nil {
		return nil
	}

	fill, err := t.broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:     t.cfg.Trading.Symbol,
		Side:       intent.Direction,
		Quantity:   intent.Quantity,
		StopLoss:   intent.StopLoss,
		TakeProfit: intent.TakeProfit,
	})
	switch {
	case err == nil:
		t.adoptFill(ctx, fill, intent.StopLoss, intent.TakeProfit)
	case errors.Is(err, broker.ErrUnprotectedPosition) && fill.Quantity > 0:
		// The entry filled but the protective orders are gone. The
		// position is real, so track it; the loop's own stop/target
		// checks are the only protection until the trailing amend
		// places a fresh venue stop.
		logger.Error("position opened without protective orders", zap.Error(err))
		t.adoptFill(ctx, fill, intent.StopLoss, intent.TakeProfit)
		t.notifyf(ctx, "WARNING: %s position has no protective orders: %v", fill.Side, err)
	default:
		// Intent not realized. No internal retry: resubmitting a
		// market order in an unknown state risks a double fill.
		logger.Error("order submission failed", zap.Error(err))
		t.notifyf(ctx, "order failed: %v", err)
	}
	return nil
}

// adoptFill records a filled entry as the open position. The entry
// price is the fill price from the gateway, not the decision-time
// close.
func (t *Trader) adoptFill(ctx context.Context, fill broker.OrderFill, stop, target float64) {
	t.eng.OpenPosition(fill.Side, fill.Price, stop, target, fill.Quantity, fill.Time)
	t.openTradeID = id.New()
	t.stopOrderID = fill.StopOrderID
	t.tpOrderID = fill.TakeProfitOrderID

	if err := t.journal.RecordOpen(journal.TradeRecord{
		TradeID:    t.openTradeID,
		Symbol:     fill.Symbol,
		Direction:  fill.Side,
		Quantity:   fill.Quantity,
		EntryPrice: fill.Price,
		StopLoss:   stop,
		TakeProfit: target,
		OpenTime:   fill.Time,
	}); err != nil {
		logger.Error("journal open failed", zap.Error(err))
	}

	logger.Info("position opened",
		zap.String("trade_id", t.openTradeID),
		zap.String("side", fill.Side.String()),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("entry", fill.Price),
		zap.Float64("stop", stop),
		zap.Float64("target", target))
	t.notifyf(ctx, "%s %s %.4f @ %.2f (stop %.2f, target %.2f)",
		fill.Side, fill.Symbol, fill.Quantity, fill.Price, stop, target)
}

// managePosition checks the open position against the latest candle.
// The exchange's protective orders do the actual flattening; the loop
// observes the candle crossing a level, settles its own books, and
// feeds any realized loss into the daily accumulator. An exit cancels
// the surviving sibling order so nothing rests on the venue afterward.
func (t *Trader) managePosition(ctx context.Context, now time.Time, last market.Candle) error {
	pos := t.eng.Position()

	switch {
	case pos.StopHit(last):
		return t.settleClose(ctx, now, pos.StopLoss, "stop-loss hit", t.tpOrderID)
	case pos.TargetHit(last):
		return t.settleClose(ctx, now, pos.TakeProfit, "take-profit hit", t.stopOrderID)
	}

	// The trailing stop ratchets off the recorded entry price. The
	// venue's stop order is amended first; the book stop moves only once
	// the exchange holds the new level, so the two never diverge.
	next := engine.AdjustTrailingStop(last.Close, pos.EntryPrice, pos.StopLoss, pos.Direction)
	if next == pos.StopLoss {
		return nil
	}
	newID, err := t.broker.ReplaceStop(ctx, t.cfg.Trading.Symbol, t.stopOrderID, pos.Direction, next)
	if err != nil {
		logger.Error("stop amend failed, book stop unchanged", zap.Error(err))
		return nil
	}
	t.stopOrderID = newID
	pos.StopLoss = next
	logger.Info("trailing stop tightened",
		zap.String("trade_id", t.openTradeID),
		zap.Float64("stop", next))
	return nil
}

func (t *Trader) settleClose(ctx context.Context, now time.Time, exitPrice float64, reason, siblingOrderID string) error {
	pos := t.eng.ClosePosition()
	pl := pos.PL(exitPrice)
	if pl < 0 {
		t.daily.RecordLoss(now, -pl)
	}

	if siblingOrderID != "" {
		if err := t.broker.CancelOrder(ctx, t.cfg.Trading.Symbol, siblingOrderID); err != nil {
			logger.Error("cancel surviving protective order failed",
				zap.String("order_id", siblingOrderID), zap.Error(err))
		}
	}

	if err := t.journal.RecordClose(t.openTradeID, exitPrice, now, pl, reason); err != nil {
		logger.Error("journal close failed", zap.Error(err))
	}

	logger.Info("position closed",
		zap.String("trade_id", t.openTradeID),
		zap.String("reason", reason),
		zap.Float64("exit", exitPrice),
		zap.Float64("pl", pl))
	t.notifyf(ctx, "closed %s @ %.2f (%s): PL %.2f", pos.Direction, exitPrice, reason, pl)

	t.openTradeID = ""
	t.stopOrderID = ""
	t.tpOrderID = ""
	return nil
}

func (t *Trader) notifyf(ctx context.Context, format string, args ...any) {
	if err := t.notifier.Notify(ctx, fmt.Sprintf(format, args...)); err != nil {
		logger.Warn("notification failed", zap.Error(err))
	}
}
