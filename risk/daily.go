package risk

import "time"

// DailyAccumulator tracks realized losses for the current UTC day. It
// gates new entries once the loss cap is breached; it never flattens
// positions that are already open (observe-only).
//
// The accumulator is single-writer by contract: the caller runs one
// fetch-decide-act cycle at a time, so no locking is needed. The clock
// is always supplied by the caller, never read internally, which keeps
// backtests and live trading on the same code path.
type DailyAccumulator struct {
	day  time.Time
	loss float64
}

// RecordLoss adds a realized loss (a positive amount in account
// currency) to the current day's total.
func (a *DailyAccumulator) RecordLoss(now time.Time, amount float64) {
	a.roll(now)
	if amount > 0 {
		a.loss += amount
	}
}

// Loss returns the accumulated loss for the day containing now.
func (a *DailyAccumulator) Loss(now time.Time) float64 {
	a.roll(now)
	return a.loss
}

// Allow reports whether a new trade may be opened: the day's realized
// loss must be below cap*equity.
func (a *DailyAccumulator) Allow(now time.Time, equity, cap float64) bool {
	a.roll(now)
	return a.loss < cap*equity
}

// roll resets the accumulator when now has crossed UTC midnight since
// the last update.
func (a *DailyAccumulator) roll(now time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(a.day) {
		a.day = day
		a.loss = 0
	}
}
