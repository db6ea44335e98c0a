package risk

import (
	"fmt"
	"math"

	"futbot/market"
)

// PositionSize converts the account risk amount and current ATR into a
// position size in contract units, clamped to [MinLot, maxLot]. It
// fails with ErrInvalidPositionSize when ATR is non-positive or the
// clamped size is at or below the minimum lot; the caller must skip the
// trade rather than submit a zero or negative order.
func PositionSize(riskAmount, atr, maxLot float64) (float64, error) {
	if atr <= 0 {
		return 0, fmt.Errorf("atr %g not positive: %w", atr, ErrInvalidPositionSize)
	}
	if riskAmount <= 0 {
		return 0, fmt.Errorf("risk amount %g not positive: %w", riskAmount, ErrInvalidPositionSize)
	}

	size := riskAmount / atr
	if size > maxLot {
		size = maxLot
	}
	if size <= MinLot {
		return 0, fmt.Errorf("size %g at or below minimum lot %g: %w", size, MinLot, ErrInvalidPositionSize)
	}
	return size, nil
}

// StopAndTarget computes the stop-loss and take-profit for an entry at
// price. The defaults are ATR-based: stop at StopATRMultiple away,
// target at TargetATRMultiple away. When a structural level sits on the
// stop side of the entry and within StructuralAnchorATRLimit ATRs of it,
// that level replaces the default stop: support for a long, resistance
// for a short. The substitution is deliberate and directional, never an
// accidental override with a stale level from the wrong side.
func StopAndTarget(price, atr, support, resistance float64, side market.Side) (stop, target float64) {
	switch side {
	case market.Long:
		stop = price - StopATRMultiple*atr
		target = price + TargetATRMultiple*atr
		if support > 0 && support < price && price-support <= StructuralAnchorATRLimit*atr {
			stop = support
		}
	case market.Short:
		stop = price + StopATRMultiple*atr
		target = price - TargetATRMultiple*atr
		if resistance > price && resistance-price <= StructuralAnchorATRLimit*atr {
			stop = resistance
		}
	}
	return stop, target
}

// RewardRatio returns the reward/risk ratio of a stop/target pair
// around an entry price: the distance to target over the distance to
// stop. A zero stop distance yields 0 so a degenerate pair always fails
// the minimum-ratio gate.
func RewardRatio(price, stop, target float64) float64 {
	riskDist := math.Abs(price - stop)
	if riskDist == 0 {
		return 0
	}
	return math.Abs(target-price) / riskDist
}
