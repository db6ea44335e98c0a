package backtest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"futbot/indicators"
	"futbot/market"
	"futbot/risk"
)

func TestReadCandles(t *testing.T) {
	csv := `time,open,high,low,close,volume
2024-03-01T00:00:00Z,100,105,95,102,12.5
2024-03-01T00:15:00Z,102,108,101,107,8

1709254800000,107,110,104,109,3.2
`
	candles, err := ReadCandles(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	require.Equal(t, 100.0, candles[0].Open)
	require.Equal(t, 105.0, candles[0].High)
	require.Equal(t, 95.0, candles[0].Low)
	require.Equal(t, 102.0, candles[0].Close)
	require.Equal(t, 12.5, candles[0].Volume)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), candles[0].Time)

	// Unix-millisecond timestamps parse too.
	require.Equal(t, time.UnixMilli(1709254800000).UTC(), candles[2].Time)
}

func TestReadCandles_BadRow(t *testing.T) {
	_, err := ReadCandles(strings.NewReader("2024-03-01T00:00:00Z,abc,105,95,102\n"))
	require.Error(t, err)

	_, err = ReadCandles(strings.NewReader("not-a-time,100,105,95,102\n"))
	require.Error(t, err)
}

func runConfig() RunConfig {
	return RunConfig{
		Policy: risk.Policy{
			Leverage:     5,
			RiskPerTrade: 0.01,
			MaxLotSize:   100,
			DailyRiskCap: 0.05,
		},
		Indicators:  indicators.DefaultConfig(),
		Window:      30,
		StartEquity: 10000,
	}
}

// trendCandles mirrors the live engine's entry fixture: a seeded
// uptrend with candle range 40, which the engine enters long with
// quantity 2.5 at close 117.6 and stop 80.
func trendCandles() []market.Candle {
	deltas := []float64{1, 1, -0.4, 1, 1, -0.3, 1, 1, -0.5, 1, 1, -0.2, 1, 1}
	closes := []float64{100}
	c := 100.0
	for _, d := range deltas {
		c += d
		closes = append(closes, c)
	}
	for i := 0; i < 15; i++ {
		c += 0.6
		closes = append(closes, c)
	}

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, len(closes))
	for i, cl := range closes {
		candles[i] = market.Candle{
			Time:  base.Add(time.Duration(i) * 15 * time.Minute),
			High:  cl + 20,
			Low:   cl - 20,
			Close: cl,
		}
	}
	return candles
}

func TestRun_OpenAtEndClosesAtLastPrice(t *testing.T) {
	candles := trendCandles()

	res, err := Run(candles, runConfig())
	require.NoError(t, err)
	require.Equal(t, 1, res.Cycles)
	require.Equal(t, 1, res.Trades)

	// The single entry fills at the final close and is force-closed
	// there: a break-even round trip that is neither a win nor a loss.
	require.Zero(t, res.Wins)
	require.Zero(t, res.Losses)
	require.Zero(t, res.WinRate())
	require.InDelta(t, 0.0, res.NetPL(), 1e-9)
	require.InDelta(t, 10000.0, res.EndEquity, 1e-9)
}

func TestRun_StopLossAccounting(t *testing.T) {
	candles := trendCandles()
	last := candles[len(candles)-1]

	// One more candle trading down through the structural stop at 80.
	candles = append(candles, market.Candle{
		Time:  last.Time.Add(15 * time.Minute),
		High:  last.Close,
		Low:   70,
		Close: 75,
	})

	res, err := Run(candles, runConfig())
	require.NoError(t, err)
	require.Equal(t, 2, res.Cycles)
	require.Equal(t, 1, res.Trades)
	require.Equal(t, 1, res.Losses)
	require.Zero(t, res.Wins)

	// Entry 117.6, stop 80, quantity 2.5: loss 94.
	require.InDelta(t, 94.0, res.GrossLoss, 1e-6)
	require.InDelta(t, -94.0, res.NetPL(), 1e-6)
	require.InDelta(t, 10000.0-94.0, res.EndEquity, 1e-6)
}

func TestRun_Validation(t *testing.T) {
	candles := trendCandles()

	cfg := runConfig()
	cfg.Window = 10 // below the indicator minimum
	_, err := Run(candles, cfg)
	require.Error(t, err)

	cfg = runConfig()
	_, err = Run(candles[:20], cfg)
	require.Error(t, err)

	cfg = runConfig()
	cfg.Policy.RiskPerTrade = 0.5 // breaks the risk invariant
	_, err = Run(candles, cfg)
	require.Error(t, err)
}

func TestResultRates(t *testing.T) {
	require.Zero(t, Result{}.WinRate())
	require.InDelta(t, 0.25, Result{Trades: 4, Wins: 1}.WinRate(), 1e-12)
	require.InDelta(t, 5.0, Result{GrossWin: 12, GrossLoss: 7}.NetPL(), 1e-12)
}
