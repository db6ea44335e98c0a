package live

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"futbot/broker"
	"futbot/config"
	"futbot/journal"
	"futbot/market"
	"futbot/notify"
)

type stopReplace struct {
	oldID string
	stop  float64
}

type fakeBroker struct {
	candles []market.Candle
	balance float64

	submits     []broker.OrderRequest
	fill        broker.OrderFill
	failSub     bool
	unprotected bool

	replaces    []stopReplace
	failReplace bool
	cancels     []string
	nextStopID  int
}

func (f *fakeBroker) Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	return f.candles, nil
}

func (f *fakeBroker) Balance(ctx context.Context) (float64, error) {
	return f.balance, nil
}

func (f *fakeBroker) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderFill, error) {
	f.submits = append(f.submits, req)
	if f.failSub {
		return broker.OrderFill{}, context.DeadlineExceeded
	}
	fill := f.fill
	fill.Symbol = req.Symbol
	fill.Side = req.Side
	fill.Quantity = req.Quantity
	if f.unprotected {
		return fill, fmt.Errorf("stop-loss rejected: %w", broker.ErrUnprotectedPosition)
	}
	fill.StopOrderID = "s1"
	fill.TakeProfitOrderID = "t1"
	return fill, nil
}

func (f *fakeBroker) ReplaceStop(ctx context.Context, symbol, orderID string, side market.Side, stop float64) (string, error) {
	if f.failReplace {
		return "", context.DeadlineExceeded
	}
	f.replaces = append(f.replaces, stopReplace{oldID: orderID, stop: stop})
	f.nextStopID++
	return fmt.Sprintf("s%d", f.nextStopID+1), nil
}

func (f *fakeBroker) CancelOrder(ctx context.Context, symbol, orderID string) error {
	f.cancels = append(f.cancels, orderID)
	return nil
}

type fakeJournal struct {
	opens  []journal.TradeRecord
	closes []string
}

func (f *fakeJournal) RecordOpen(t journal.TradeRecord) error {
	f.opens = append(f.opens, t)
	return nil
}

func (f *fakeJournal) RecordClose(tradeID string, exitPrice float64, closeTime time.Time, realizedPL float64, reason string) error {
	f.closes = append(f.closes, reason)
	return nil
}

func (f *fakeJournal) Close() error { return nil }

// entryCandles is the engine's long-entry fixture: seeded uptrend,
// candle range 40, final close 117.6, structural stop 80, target 197.6.
func entryCandles() []market.Candle {
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
	out := make([]market.Candle, len(closes))
	for i, cl := range closes {
		out[i] = market.Candle{
			Time:  base.Add(time.Duration(i) * 15 * time.Minute),
			High:  cl + 20,
			Low:   cl - 20,
			Close: cl,
		}
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Risk.MaxLotSize = 100
	return cfg
}

func newTestTrader(b *fakeBroker, j journal.Journal) *Trader {
	tr := New(testConfig(), b, j, notify.Nop{})
	tr.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return tr
}

func TestCycle_EntryThenNoReentry(t *testing.T) {
	b := &fakeBroker{
		candles: entryCandles(),
		balance: 10000,
		fill: broker.OrderFill{
			OrderID: "1",
			Price:   117.8, // fill price, slightly off the decision close
			Time:    time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC),
		},
	}
	j := &fakeJournal{}
	tr := newTestTrader(b, j)

	require.NoError(t, tr.Cycle(context.Background()))
	require.Len(t, b.submits, 1)
	require.Equal(t, market.Long, b.submits[0].Side)
	require.Len(t, j.opens, 1)
	require.Equal(t, "s1", tr.stopOrderID)
	require.Equal(t, "t1", tr.tpOrderID)

	pos := tr.eng.Position()
	require.NotNil(t, pos)
	// Entry price is the gateway fill, not the decision-time close.
	require.Equal(t, 117.8, pos.EntryPrice)

	// Same market again: the open position blocks re-entry and nothing
	// exits (low 97.6 > stop 80, high 137.6 < target 197.6). Price sits
	// below the entry, so the stop does not trail either.
	require.NoError(t, tr.Cycle(context.Background()))
	require.Len(t, b.submits, 1)
	require.Empty(t, b.replaces)
	require.NotNil(t, tr.eng.Position())
}

func TestCycle_TargetExitSettles(t *testing.T) {
	candles := entryCandles()
	b := &fakeBroker{
		candles: candles,
		balance: 10000,
		fill:    broker.OrderFill{OrderID: "1", Price: 117.6, Time: time.Now().UTC()},
	}
	j := &fakeJournal{}
	tr := newTestTrader(b, j)

	require.NoError(t, tr.Cycle(context.Background()))
	pos := tr.eng.Position()
	require.NotNil(t, pos)
	target := pos.TakeProfit

	// Next candle trades through the target.
	last := candles[len(candles)-1]
	b.candles = append(candles, market.Candle{
		Time:  last.Time.Add(15 * time.Minute),
		High:  target + 5,
		Low:   last.Close,
		Close: target + 1,
	})

	require.NoError(t, tr.Cycle(context.Background()))
	require.Nil(t, tr.eng.Position())
	require.Equal(t, []string{"take-profit hit"}, j.closes)

	// The surviving stop order is cancelled, nothing rests on the venue.
	require.Equal(t, []string{"s1"}, b.cancels)
	require.Empty(t, tr.stopOrderID)
	require.Empty(t, tr.tpOrderID)

	// A profitable close adds nothing to the daily loss.
	require.Zero(t, tr.daily.Loss(tr.now()))
}

func TestCycle_StopExitFeedsDailyAccumulator(t *testing.T) {
	candles := entryCandles()
	b := &fakeBroker{
		candles: candles,
		balance: 10000,
		fill:    broker.OrderFill{OrderID: "1", Price: 117.6, Time: time.Now().UTC()},
	}
	j := &fakeJournal{}
	tr := newTestTrader(b, j)

	require.NoError(t, tr.Cycle(context.Background()))
	pos := tr.eng.Position()
	require.NotNil(t, pos)
	stop := pos.StopLoss
	qty := pos.Quantity

	last := candles[len(candles)-1]
	b.candles = append(candles, market.Candle{
		Time:  last.Time.Add(15 * time.Minute),
		High:  last.Close,
		Low:   stop - 10,
		Close: stop - 5,
	})

	require.NoError(t, tr.Cycle(context.Background()))
	require.Nil(t, tr.eng.Position())
	require.Equal(t, []string{"stop-loss hit"}, j.closes)
	require.InDelta(t, qty*(117.6-stop), tr.daily.Loss(tr.now()), 1e-9)

	// The surviving take-profit order is cancelled.
	require.Equal(t, []string{"t1"}, b.cancels)
}

func TestCycle_TrailingAmendsExchangeStop(t *testing.T) {
	candles := entryCandles()
	b := &fakeBroker{
		candles: candles,
		balance: 10000,
		fill:    broker.OrderFill{OrderID: "1", Price: 117.8, Time: time.Now().UTC()},
	}
	j := &fakeJournal{}
	tr := newTestTrader(b, j)

	require.NoError(t, tr.Cycle(context.Background()))
	pos := tr.eng.Position()
	require.NotNil(t, pos)
	require.Equal(t, 80.0, pos.StopLoss)

	// Price runs up below the target: the stop trails to entry plus
	// half the open profit, and the venue stop is amended in lockstep.
	last := candles[len(candles)-1]
	runup := market.Candle{
		Time:  last.Time.Add(15 * time.Minute),
		High:  165,
		Low:   120,
		Close: 160,
	}
	b.candles = append(candles, runup)
	require.NoError(t, tr.Cycle(context.Background()))

	trailed := 160 - 0.5*(160-117.8)
	require.InDelta(t, trailed, pos.StopLoss, 1e-9)
	require.Len(t, b.replaces, 1)
	require.Equal(t, "s1", b.replaces[0].oldID)
	require.InDelta(t, trailed, b.replaces[0].stop, 1e-9)
	require.Equal(t, "s2", tr.stopOrderID)

	// A pullback through the trailed level settles the trade: the venue
	// stop already rests at the trailed price, so book and exchange
	// agree on the exit.
	b.candles = append(b.candles, market.Candle{
		Time:  runup.Time.Add(15 * time.Minute),
		High:  158,
		Low:   trailed - 5,
		Close: trailed - 2,
	})
	require.NoError(t, tr.Cycle(context.Background()))
	require.Nil(t, tr.eng.Position())
	require.Equal(t, []string{"stop-loss hit"}, j.closes)
	require.Equal(t, []string{"t1"}, b.cancels)

	// The trailed exit locked in a profit, not a loss.
	require.Zero(t, tr.daily.Loss(tr.now()))
}

func TestCycle_StopAmendFailureKeepsBookStop(t *testing.T) {
	candles := entryCandles()
	b := &fakeBroker{
		candles:     candles,
		balance:     10000,
		fill:        broker.OrderFill{OrderID: "1", Price: 117.8, Time: time.Now().UTC()},
		failReplace: true,
	}
	tr := newTestTrader(b, &fakeJournal{})

	require.NoError(t, tr.Cycle(context.Background()))
	pos := tr.eng.Position()
	require.NotNil(t, pos)

	last := candles[len(candles)-1]
	b.candles = append(candles, market.Candle{
		Time:  last.Time.Add(15 * time.Minute),
		High:  165,
		Low:   120,
		Close: 160,
	})
	require.NoError(t, tr.Cycle(context.Background()))

	// The amend failed, so the book stop stays at the exchange's level.
	require.Equal(t, 80.0, pos.StopLoss)
	require.Equal(t, "s1", tr.stopOrderID)
}

func TestCycle_AdoptsUnprotectedFill(t *testing.T) {
	b := &fakeBroker{
		candles:     entryCandles(),
		balance:     10000,
		fill:        broker.OrderFill{OrderID: "1", Price: 117.8, Time: time.Now().UTC()},
		unprotected: true,
	}
	j := &fakeJournal{}
	tr := newTestTrader(b, j)

	// The entry filled even though the protective orders were rejected:
	// the loop must own the position rather than leave it untracked.
	require.NoError(t, tr.Cycle(context.Background()))
	require.Len(t, b.submits, 1)

	pos := tr.eng.Position()
	require.NotNil(t, pos)
	require.Equal(t, 117.8, pos.EntryPrice)
	require.Len(t, j.opens, 1)
	require.Empty(t, tr.stopOrderID)

	// No second entry while the adopted position is open.
	require.NoError(t, tr.Cycle(context.Background()))
	require.Len(t, b.submits, 1)
}

func TestCycle_FailedSubmitLeavesFlat(t *testing.T) {
	b := &fakeBroker{
		candles: entryCandles(),
		balance: 10000,
		failSub: true,
	}
	j := &fakeJournal{}
	tr := newTestTrader(b, j)

	// A failed submit is "intent not realized", not a cycle error.
	require.NoError(t, tr.Cycle(context.Background()))
	require.Len(t, b.submits, 1)
	require.Nil(t, tr.eng.Position())
	require.Empty(t, j.opens)

	// The next cycle tries again from scratch.
	require.NoError(t, tr.Cycle(context.Background()))
	require.Len(t, b.submits, 2)
}
