// Package backtest replays historical candles through the same engine
// the live loop uses, with a minimal fill simulator for the protective
// stop/target orders.
package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"futbot/market"
)

// ReadCandles parses candle CSV rows:
//
//	time,open,high,low,close[,volume]
//
// where time is RFC3339 or a unix-millisecond integer. A single header
// row is allowed; empty and short rows are skipped.
func ReadCandles(r io.Reader) ([]market.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		candles  []market.Candle
		sawFirst bool
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}
		if len(row) < 5 {
			continue
		}

		c, err := parseCandleRow(row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}

	if err := market.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func parseCandleRow(row []string) (market.Candle, error) {
	var c market.Candle

	ts := strings.TrimSpace(row[0])
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		ms, err2 := strconv.ParseInt(ts, 10, 64)
		if err2 != nil {
			return c, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = time.UnixMilli(ms).UTC()
	}
	c.Time = t

	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close}
	names := []string{"open", "high", "low", "close"}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return c, fmt.Errorf("bad %s %q: %w", names[i], row[i+1], err)
		}
		*dst = v
	}

	if len(row) > 5 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64); err == nil {
			c.Volume = v
		}
	}
	return c, nil
}
