// Package engine combines indicator readings and risk gates into a
// per-cycle trade decision. It performs no I/O and holds no state
// besides the open position and the daily loss accumulator handed to it
// by the caller.
package engine

import (
	"futbot/indicators"
	"futbot/market"
)

// Decision codes, one per way a cycle can end. They are stable
// identifiers for logs, notifications, and tests.
const (
	CodeEntry               = "ENTRY"
	CodeNoSignal            = "NO_SIGNAL"
	CodeIndicatorUndefined  = "INDICATOR_UNDEFINED"
	CodeInvalidPositionSize = "INVALID_POSITION_SIZE"
	CodeRiskRewardTooLow    = "RISK_REWARD_TOO_LOW"
	CodeDailyRiskCap        = "DAILY_RISK_CAP_EXCEEDED"
	CodePositionOpen        = "POSITION_OPEN"
)

// TradeIntent is a finalized order request for the execution gateway.
// Quantity is unrounded; venue precision rounding is the gateway's
// responsibility. An intent is consumed immediately and never mutated.
type TradeIntent struct {
	Direction      market.Side
	Quantity       float64
	StopLoss       float64
	TakeProfit     float64
	EntryPriceHint float64
}

// Decision records how a cycle ended. Snapshot is populated whenever
// the indicators were computable, including for NoTrade outcomes, so
// callers can log the readings behind the decision.
type Decision struct {
	Signal   market.Side
	Code     string
	Reason   string
	Snapshot indicators.Snapshot
}

func noTrade(code, reason string, snap indicators.Snapshot) Decision {
	return Decision{Signal: market.Flat, Code: code, Reason: reason, Snapshot: snap}
}
