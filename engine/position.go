package engine

import (
	"time"

	"futbot/market"
)

// PositionState describes the one open position, captured at fill time.
// EntryPrice is the actual fill price reported by the gateway, never the
// price at decision time; the trailing-stop rule depends on it.
type PositionState struct {
	Direction  market.Side
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Quantity   float64
	OpenedAt   time.Time
}

// StopHit reports whether the candle traded through the stop.
func (p *PositionState) StopHit(c market.Candle) bool {
	if p.Direction == market.Long {
		return c.Low <= p.StopLoss
	}
	return c.High >= p.StopLoss
}

// TargetHit reports whether the candle traded through the take-profit.
func (p *PositionState) TargetHit(c market.Candle) bool {
	if p.Direction == market.Long {
		return c.High >= p.TakeProfit
	}
	return c.Low <= p.TakeProfit
}

// PL returns the position's profit or loss in account currency if it
// were closed at exitPrice.
func (p *PositionState) PL(exitPrice float64) float64 {
	if p.Direction == market.Long {
		return p.Quantity * (exitPrice - p.EntryPrice)
	}
	return p.Quantity * (p.EntryPrice - exitPrice)
}

// AdjustTrailingStop ratchets a stop in the trade's favor: once price
// has moved past the entry, the stop follows at half the open profit.
// It never loosens the stop, and it does nothing while the position is
// under water. entry must be the recorded fill price of the open
// position, not the current price.
func AdjustTrailingStop(price, entry, stop float64, side market.Side) float64 {
	switch side {
	case market.Long:
		if price > entry {
			if candidate := price - 0.5*(price-entry); candidate > stop {
				return candidate
			}
		}
	case market.Short:
		if price < entry {
			if candidate := price + 0.5*(entry-price); candidate < stop {
				return candidate
			}
		}
	}
	return stop
}
