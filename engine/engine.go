package engine

import (
	"fmt"
	"time"

	"futbot/indicators"
	"futbot/market"
	"futbot/risk"
)

// Engine is the per-cycle decision state machine. It is driven
// synchronously by a single caller: one Evaluate per closed candle,
// never pipelined, so no locking is required.
type Engine struct {
	policy risk.Policy
	ind    indicators.Config
	daily  *risk.DailyAccumulator

	pos *PositionState
}

// New builds an Engine. The daily accumulator is shared with the
// caller, which feeds realized losses back into it when positions
// close.
func New(policy risk.Policy, ind indicators.Config, daily *risk.DailyAccumulator) *Engine {
	return &Engine{policy: policy, ind: ind, daily: daily}
}

// Position returns the open position, or nil when flat.
func (e *Engine) Position() *PositionState { return e.pos }

// OpenPosition records a fill. entryPrice is the gateway-reported fill
// price; it becomes the reference for the trailing-stop rule.
func (e *Engine) OpenPosition(side market.Side, entryPrice, stop, target, qty float64, at time.Time) {
	e.pos = &PositionState{
		Direction:  side,
		EntryPrice: entryPrice,
		StopLoss:   stop,
		TakeProfit: target,
		Quantity:   qty,
		OpenedAt:   at,
	}
}

// ClosePosition clears the open position and returns its final state.
func (e *Engine) ClosePosition() *PositionState {
	pos := e.pos
	e.pos = nil
	return pos
}

// ApplyTrailing updates the open position's stop for the latest price.
// The stop only ever tightens. Returns the new stop and whether it
// moved. No-op when flat.
func (e *Engine) ApplyTrailing(price float64) (float64, bool) {
	if e.pos == nil {
		return 0, false
	}
	next := AdjustTrailingStop(price, e.pos.EntryPrice, e.pos.StopLoss, e.pos.Direction)
	moved := next != e.pos.StopLoss
	e.pos.StopLoss = next
	return next, moved
}

// Evaluate runs one decision cycle over the candle window and returns
// at most one trade intent. Every failure is cycle-scoped: the engine
// reports NoTrade with a code and the caller proceeds to the next
// cycle. Gate order: open-position gate, indicators, sizing, daily loss
// cap, entry conditions, then the risk/reward gate on the concrete
// stop/target pair (stop placement is directional, so the ratio is
// checked once a direction exists; the daily cap is checked before the
// entry rules so a breached cap always reports as such).
func (e *Engine) Evaluate(now time.Time, equity float64, candles []market.Candle) (*TradeIntent, Decision) {
	if e.pos != nil {
		return nil, noTrade(CodePositionOpen,
			fmt.Sprintf("%s position open at %g", e.pos.Direction, e.pos.EntryPrice),
			indicators.Snapshot{})
	}

	snap, err := indicators.Compute(candles, e.ind)
	if err != nil {
		return nil, noTrade(CodeIndicatorUndefined, err.Error(), indicators.Snapshot{})
	}
	price := snap.Close

	qty, err := risk.PositionSize(equity*e.policy.RiskPerTrade, snap.ATR, e.policy.MaxLotSize)
	if err != nil {
		return nil, noTrade(CodeInvalidPositionSize, err.Error(), snap)
	}

	if !e.daily.Allow(now, equity, e.policy.DailyRiskCap) {
		return nil, noTrade(CodeDailyRiskCap,
			fmt.Sprintf("daily loss %g at cap: %s", e.daily.Loss(now), risk.ErrDailyRiskCapExceeded),
			snap)
	}

	side := entrySide(snap, price)
	if side == market.Flat {
		return nil, noTrade(CodeNoSignal, "entry conditions not met", snap)
	}

	stop, target := risk.StopAndTarget(price, snap.ATR, snap.Support, snap.Resistance, side)
	minRR := e.policy.MinRiskReward(snap.ATR)
	if ratio := risk.RewardRatio(price, stop, target); ratio < minRR {
		return nil, noTrade(CodeRiskRewardTooLow,
			fmt.Sprintf("ratio %.2f below required %.2f: %s", ratio, minRR, risk.ErrRiskRewardTooLow),
			snap)
	}

	intent := &TradeIntent{
		Direction:      side,
		Quantity:       qty,
		StopLoss:       stop,
		TakeProfit:     target,
		EntryPriceHint: price,
	}
	return intent, Decision{
		Signal:   side,
		Code:     CodeEntry,
		Reason:   fmt.Sprintf("%s entry at %g, stop %g, target %g", side, price, stop, target),
		Snapshot: snap,
	}
}

// entrySide applies the directional rules. Long and short conditions
// are mutually exclusive because the EMA comparison is strict and
// one-directional; the engine tests verify this rather than assume it.
func entrySide(snap indicators.Snapshot, price float64) market.Side {
	if snap.EMAShort > snap.EMALong && snap.RSI > 50 &&
		price > snap.CPRTop && price > snap.Support {
		return market.Long
	}
	if snap.EMAShort < snap.EMALong && snap.RSI < 50 &&
		price < snap.CPRBottom && price < snap.Resistance {
		return market.Short
	}
	return market.Flat
}
