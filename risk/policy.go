// Package risk converts an account risk budget and current volatility
// into bounded position sizes and risk/reward-gated stop/target pairs,
// and tracks the daily loss cap.
package risk

import (
	"errors"
	"fmt"
)

const (
	// MinLot is the exchange-imposed order size floor.
	MinLot = 0.001

	// BaseMinRiskReward is the reward/risk ratio required for entry
	// under normal volatility.
	BaseMinRiskReward = 2.0

	// RelaxedMinRiskReward applies when ATR exceeds HighVolatilityATR.
	RelaxedMinRiskReward = 1.5

	// HighVolatilityATR is the ATR level, in quote-currency units, above
	// which the risk/reward requirement relaxes.
	HighVolatilityATR = 500.0

	// StopATRMultiple and TargetATRMultiple set the default stop and
	// target distances when no structural level is usable.
	StopATRMultiple   = 1.5
	TargetATRMultiple = 2.0

	// StructuralAnchorATRLimit bounds how far, in ATR multiples, a
	// support or resistance level may sit from the current price and
	// still replace the default stop.
	StructuralAnchorATRLimit = 3.0
)

// Cycle-scoped gate failures. None of these is fatal: the engine maps
// each to a NoTrade decision and the caller moves on to the next cycle.
var (
	ErrInvalidPositionSize  = errors.New("invalid position size")
	ErrRiskRewardTooLow     = errors.New("risk/reward below minimum")
	ErrDailyRiskCapExceeded = errors.New("daily risk cap exceeded")
)

// Policy is the process-wide risk configuration. It is read-only after
// startup.
type Policy struct {
	// Leverage is the collateral multiplier set on the exchange. It is
	// not used in sizing math, only passed through to the gateway.
	Leverage int

	// RiskPerTrade is the fraction of account equity risked per trade.
	RiskPerTrade float64

	// MaxLotSize caps the position size in contract units.
	MaxLotSize float64

	// DailyRiskCap is the fraction of equity that may be lost in one
	// UTC day before new entries are blocked.
	DailyRiskCap float64

	// MinRiskRewardBase overrides BaseMinRiskReward when positive.
	MinRiskRewardBase float64
}

// Validate enforces the policy invariant 0 < RiskPerTrade <= DailyRiskCap <= 1.
func (p Policy) Validate() error {
	if p.RiskPerTrade <= 0 {
		return fmt.Errorf("risk_per_trade must be positive, got %g", p.RiskPerTrade)
	}
	if p.RiskPerTrade > p.DailyRiskCap {
		return fmt.Errorf("risk_per_trade %g exceeds daily_risk_cap %g", p.RiskPerTrade, p.DailyRiskCap)
	}
	if p.DailyRiskCap > 1 {
		return fmt.Errorf("daily_risk_cap must not exceed 1, got %g", p.DailyRiskCap)
	}
	if p.MaxLotSize < MinLot {
		return fmt.Errorf("max_lot_size %g below minimum lot %g", p.MaxLotSize, MinLot)
	}
	if p.Leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got %d", p.Leverage)
	}
	return nil
}

// MinRiskReward returns the required reward/risk ratio for the given
// ATR: the base requirement normally, relaxed in high volatility.
func (p Policy) MinRiskReward(atr float64) float64 {
	base := p.MinRiskRewardBase
	if base <= 0 {
		base = BaseMinRiskReward
	}
	if atr > HighVolatilityATR {
		return RelaxedMinRiskReward
	}
	return base
}
