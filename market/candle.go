// Package market holds the shared market-data vocabulary: candles,
// trade sides, and small helpers over candle series.
package market

import (
	"fmt"
	"time"
)

// Candle represents one closed OHLCV candlestick.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close series from candles, oldest first.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// ValidateSeries checks that candles are non-empty and time-ordered
// oldest first. Candles with a zero Time are accepted (synthetic series).
func ValidateSeries(candles []Candle) error {
	if len(candles) == 0 {
		return fmt.Errorf("empty candle series")
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Time.IsZero() || candles[i-1].Time.IsZero() {
			continue
		}
		if candles[i].Time.Before(candles[i-1].Time) {
			return fmt.Errorf("candle series out of order at index %d", i)
		}
	}
	return nil
}
