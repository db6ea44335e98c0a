// Package broker defines the execution-gateway contract the trading
// loop depends on. Implementations own authentication, precision
// rounding, and retry; the decision engine never talks to them
// directly.
package broker

import (
	"context"
	"errors"
	"time"

	"futbot/market"
)

// ErrUnprotectedPosition reports that an entry order filled but its
// protective stop/target orders could not be placed and the position
// could not be flattened. The fill is still returned alongside this
// error; the caller owns the position and must adopt it.
var ErrUnprotectedPosition = errors.New("position open without protective orders")

// OrderRequest is a market order with a protective stop/target pair.
// Quantity arrives unrounded; the gateway rounds it to the venue's
// quantity step before submission.
type OrderRequest struct {
	Symbol     string
	Side       market.Side
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
}

// OrderFill reports a submission that filled. Price is the average
// fill price, which callers must use as the position's entry price.
// StopOrderID and TakeProfitOrderID identify the resting protective
// orders so the caller can amend or cancel them later.
type OrderFill struct {
	OrderID           string
	Symbol            string
	Side              market.Side
	Quantity          float64
	Price             float64
	Time              time.Time
	StopOrderID       string
	TakeProfitOrderID string
}

// Broker is the gateway to the exchange.
//
// Candles and Balance are idempotent reads and may be retried by the
// implementation. SubmitOrder must never be retried internally: a
// market order that failed in an unknown state cannot be resubmitted
// safely, so a failed submit means "intent not realized" and the caller
// waits for the next cycle. The one exception is
// ErrUnprotectedPosition, which carries a real fill the caller must
// adopt.
//
// ReplaceStop amends the resting protective stop by cancel-and-replace
// so the venue's stop always matches the caller's book stop; side is
// the position's direction. An empty orderID places a fresh stop
// without cancelling anything. CancelOrder removes a resting
// protective order, used to clean up the sibling after an exit.
type Broker interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
	Balance(ctx context.Context) (float64, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderFill, error)
	ReplaceStop(ctx context.Context, symbol, orderID string, side market.Side, stop float64) (string, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
}
