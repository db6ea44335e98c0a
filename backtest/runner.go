package backtest

import (
	"fmt"

	"futbot/engine"
	"futbot/indicators"
	"futbot/market"
	"futbot/risk"
)

// RunConfig parameterizes a replay.
type RunConfig struct {
	Policy     risk.Policy
	Indicators indicators.Config
	// Window is how many candles the engine sees each cycle, matching
	// the live fetch size.
	Window int
	// StartEquity is the simulated account balance.
	StartEquity float64
}

// Result summarizes a replay.
type Result struct {
	Cycles    int
	Trades    int
	Wins      int
	Losses    int
	GrossWin  float64
	GrossLoss float64
	EndEquity float64
}

func (r Result) NetPL() float64 {
	return r.GrossWin - r.GrossLoss
}

// WinRate returns the fraction of closed trades that were profitable.
func (r Result) WinRate() float64 {
	if r.Trades == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trades)
}

// Run replays candles through the engine exactly as the live loop
// would: one evaluation per closed candle over a sliding window, fills
// at the decision-time close, exits when a later candle trades through
// the stop or target, trailing stop applied while the position is open.
// A position still open at the end of the series is closed at the last
// close.
func Run(candles []market.Candle, cfg RunConfig) (Result, error) {
	var res Result

	if cfg.Window < cfg.Indicators.MinWindow() {
		return res, fmt.Errorf("window %d below indicator minimum %d", cfg.Window, cfg.Indicators.MinWindow())
	}
	if len(candles) < cfg.Window {
		return res, fmt.Errorf("need at least %d candles, got %d", cfg.Window, len(candles))
	}
	if err := cfg.Policy.Validate(); err != nil {
		return res, err
	}

	daily := &risk.DailyAccumulator{}
	eng := engine.New(cfg.Policy, cfg.Indicators, daily)
	equity := cfg.StartEquity

	closeAt := func(pos *engine.PositionState, exit float64, now market.Candle) {
		pl := pos.PL(exit)
		equity += pl
		res.Trades++
		switch {
		case pl > 0:
			res.Wins++
			res.GrossWin += pl
		case pl < 0:
			res.Losses++
			res.GrossLoss += -pl
			daily.RecordLoss(now.Time, -pl)
		}
		// A break-even exit counts in neither bucket.
	}

	for i := cfg.Window; i <= len(candles); i++ {
		window := candles[i-cfg.Window : i]
		last := window[len(window)-1]
		res.Cycles++

		if pos := eng.Position(); pos != nil {
			switch {
			case pos.StopHit(last):
				closeAt(eng.ClosePosition(), pos.StopLoss, last)
			case pos.TargetHit(last):
				closeAt(eng.ClosePosition(), pos.TakeProfit, last)
			default:
				eng.ApplyTrailing(last.Close)
			}
			continue
		}

		intent, _ := eng.Evaluate(last.Time, equity, window)
		if intent == nil {
			continue
		}
		// Simulated fill at the decision-time close, the replay
		// equivalent of a market order on candle close.
		eng.OpenPosition(intent.Direction, last.Close, intent.StopLoss, intent.TakeProfit, intent.Quantity, last.Time)
	}

	if pos := eng.ClosePosition(); pos != nil {
		last := candles[len(candles)-1]
		closeAt(pos, last.Close, last)
	}

	res.EndEquity = equity
	return res, nil
}
