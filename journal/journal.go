// Package journal persists trade history: every fill and every close,
// with enough context to reconstruct why the engine acted.
package journal

import (
	"time"

	"futbot/market"
)

// TradeRecord is one round trip. Exit fields stay zero until the
// position closes.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Direction  market.Side
	Quantity   float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	OpenTime   time.Time

	ExitPrice  float64
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// Journal records trade lifecycle events.
type Journal interface {
	RecordOpen(t TradeRecord) error
	RecordClose(tradeID string, exitPrice float64, closeTime time.Time, realizedPL float64, reason string) error
	Close() error
}

// Nop discards everything. Used when journaling is disabled and in
// tests.
type Nop struct{}

func (Nop) RecordOpen(TradeRecord) error { return nil }
func (Nop) RecordClose(string, float64, time.Time, float64, string) error {
	return nil
}
func (Nop) Close() error { return nil }
