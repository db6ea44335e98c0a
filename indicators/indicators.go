// Package indicators provides the technical indicators used by the
// decision engine. All functions are pure and deterministic: identical
// input series produce identical results.
package indicators

import (
	"errors"
	"fmt"
	"math"

	"futbot/market"
)

// ErrUndefined reports that an indicator has no defined value for the
// given window: the history is too short or degenerate (for example a
// zero average loss in RSI). Callers treat it as "skip this cycle".
var ErrUndefined = errors.New("indicator undefined")

// EMA computes an exponential moving average series over prices.
// The first element seeds the series, so the output always has the same
// length as the input and output[0] == prices[0]. Callers use the last
// element as the current EMA.
func EMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("ema period must be positive, got %d: %w", period, ErrUndefined)
	}
	if len(prices) < period {
		return nil, fmt.Errorf("ema(%d): need %d prices, got %d: %w", period, period, len(prices), ErrUndefined)
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i]-out[i-1])*k + out[i-1]
	}
	return out, nil
}

// RSI computes a Wilder-style seeded RSI over the first period deltas of
// prices. This is deliberately not a rolling RSI: gains and losses are
// averaged over the seed window only. A window with no losses has no
// defined relative strength and returns ErrUndefined rather than
// propagating a division by zero.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("rsi period must be positive, got %d: %w", period, ErrUndefined)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("rsi(%d): need %d prices, got %d: %w", period, period+1, len(prices), ErrUndefined)
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 0, fmt.Errorf("rsi(%d): zero average loss: %w", period, ErrUndefined)
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// ATR computes the average true range over the tail period candles.
// The first candle has no previous close, so its true range is defined
// as 0. The first period candles are treated as warmup and skipped,
// which requires more than 2*period candles in total.
func ATR(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("atr period must be positive, got %d: %w", period, ErrUndefined)
	}
	if len(candles) <= 2*period {
		return 0, fmt.Errorf("atr(%d): need more than %d candles, got %d: %w", period, 2*period, len(candles), ErrUndefined)
	}

	trs := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		trs[i] = math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), nil
}

// SupportResistance returns the lowest low and highest high of the window.
func SupportResistance(candles []market.Candle) (support, resistance float64, err error) {
	if len(candles) == 0 {
		return 0, 0, fmt.Errorf("support/resistance: empty window: %w", ErrUndefined)
	}
	support = candles[0].Low
	resistance = candles[0].High
	for _, c := range candles[1:] {
		if c.Low < support {
			support = c.Low
		}
		if c.High > resistance {
			resistance = c.High
		}
	}
	return support, resistance, nil
}

// CPR returns the central pivot range of the window:
//
//	top    = (maxHigh + minLow + meanClose) / 3
//	bottom = (maxHigh + minLow) / 2
//
// This is a window-wide pivot, not the conventional prior-session CPR.
// The formula is load-bearing for the entry rules and must not be
// "corrected" to the textbook variant.
func CPR(candles []market.Candle) (top, bottom float64, err error) {
	if len(candles) == 0 {
		return 0, 0, fmt.Errorf("cpr: empty window: %w", ErrUndefined)
	}

	low, high, _ := SupportResistance(candles)
	var closeSum float64
	for _, c := range candles {
		closeSum += c.Close
	}
	meanClose := closeSum / float64(len(candles))

	top = (high + low + meanClose) / 3
	bottom = (high + low) / 2
	return top, bottom, nil
}

// DynamicBollinger returns a Bollinger band whose width scales with
// volatility: multiplier = 2 + atr/1000 over the full closes window.
func DynamicBollinger(closes []float64, atr float64) (upper, lower float64, err error) {
	if len(closes) == 0 {
		return 0, 0, fmt.Errorf("bollinger: empty window: %w", ErrUndefined)
	}

	var sum float64
	for _, c := range closes {
		sum += c
	}
	sma := sum / float64(len(closes))

	var variance float64
	for _, c := range closes {
		d := c - sma
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(closes)))

	mult := 2 + atr/1000
	return sma + mult*stddev, sma - mult*stddev, nil
}
