package indicators

import (
	"fmt"

	"futbot/market"
)

// Config holds the lookback periods for a snapshot.
type Config struct {
	EMAShort  int
	EMALong   int
	RSIPeriod int
	ATRPeriod int
}

// DefaultConfig returns the standard periods: EMA 9/21, RSI 14, ATR 14.
func DefaultConfig() Config {
	return Config{
		EMAShort:  9,
		EMALong:   21,
		RSIPeriod: 14,
		ATRPeriod: 14,
	}
}

func (c Config) Validate() error {
	if c.EMAShort <= 0 || c.EMALong <= 0 || c.RSIPeriod <= 0 || c.ATRPeriod <= 0 {
		return fmt.Errorf("indicator periods must be positive: %+v", c)
	}
	if c.EMAShort >= c.EMALong {
		return fmt.Errorf("ema short period %d must be below long period %d", c.EMAShort, c.EMALong)
	}
	return nil
}

// MinWindow returns the smallest candle count for which every indicator
// in a snapshot is defined.
func (c Config) MinWindow() int {
	min := c.EMALong
	if c.RSIPeriod+1 > min {
		min = c.RSIPeriod + 1
	}
	if 2*c.ATRPeriod+1 > min {
		min = 2*c.ATRPeriod + 1
	}
	return min
}

// Snapshot is the full indicator reading over one candle window. It has
// no identity beyond the window it was computed from; a new one is
// computed every cycle and the old one discarded.
type Snapshot struct {
	Close      float64
	EMAShort   float64
	EMALong    float64
	RSI        float64
	ATR        float64
	Support    float64
	Resistance float64
	CPRTop     float64
	CPRBottom  float64
	BBUpper    float64
	BBLower    float64
}

// Compute derives a Snapshot from the candle window. If any indicator is
// undefined the whole snapshot is undefined and the error wraps
// ErrUndefined.
func Compute(candles []market.Candle, cfg Config) (Snapshot, error) {
	var snap Snapshot

	if err := market.ValidateSeries(candles); err != nil {
		return snap, fmt.Errorf("%s: %w", err, ErrUndefined)
	}

	closes := market.Closes(candles)
	snap.Close = closes[len(closes)-1]

	emaShort, err := EMA(closes, cfg.EMAShort)
	if err != nil {
		return snap, err
	}
	emaLong, err := EMA(closes, cfg.EMALong)
	if err != nil {
		return snap, err
	}
	snap.EMAShort = emaShort[len(emaShort)-1]
	snap.EMALong = emaLong[len(emaLong)-1]

	if snap.RSI, err = RSI(closes, cfg.RSIPeriod); err != nil {
		return snap, err
	}
	if snap.ATR, err = ATR(candles, cfg.ATRPeriod); err != nil {
		return snap, err
	}
	if snap.Support, snap.Resistance, err = SupportResistance(candles); err != nil {
		return snap, err
	}
	if snap.CPRTop, snap.CPRBottom, err = CPR(candles); err != nil {
		return snap, err
	}
	if snap.BBUpper, snap.BBLower, err = DynamicBollinger(closes, snap.ATR); err != nil {
		return snap, err
	}

	return snap, nil
}
