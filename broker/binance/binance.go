// Package binance implements the broker gateway against Binance USD-M
// futures.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"go.uber.org/zap"

	"futbot/broker"
	"futbot/market"
	"futbot/pkg/logger"
)

// Config holds the exchange connection settings.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
}

// Client is the Binance futures gateway. It loads the traded symbol's
// filters once at startup and fails closed if they are unavailable:
// precision is a required input to order construction, never a silent
// default.
type Client struct {
	api    *futures.Client
	symbol string

	quantityStep   string
	pricePrecision int
	marginAsset    string
}

// New connects to Binance futures, sets the account leverage for the
// symbol, and loads its lot-size and price filters.
func New(ctx context.Context, cfg Config, symbol string, leverage int) (*Client, error) {
	if cfg.Testnet {
		futures.UseTestnet = true
	}

	c := &Client{
		api:    futures.NewClient(cfg.APIKey, cfg.APISecret),
		symbol: symbol,
	}

	if err := c.loadSymbolFilters(ctx); err != nil {
		return nil, fmt.Errorf("load symbol filters for %s: %w", symbol, err)
	}

	if _, err := c.api.NewChangeLeverageService().
		Symbol(symbol).
		Leverage(leverage).
		Do(ctx); err != nil {
		return nil, fmt.Errorf("set leverage %dx on %s: %w", leverage, symbol, err)
	}

	logger.Info("binance gateway ready",
		zap.String("symbol", symbol),
		zap.String("quantity_step", c.quantityStep),
		zap.Int("price_precision", c.pricePrecision),
		zap.Bool("testnet", cfg.Testnet))
	return c, nil
}

func (c *Client) loadSymbolFilters(ctx context.Context) error {
	var info *futures.ExchangeInfo
	err := retryRead(ctx, "exchange info", func() error {
		var e error
		info, e = c.api.NewExchangeInfoService().Do(ctx)
		return e
	})
	if err != nil {
		return err
	}

	for _, s := range info.Symbols {
		if s.Symbol != c.symbol {
			continue
		}
		lot := s.LotSizeFilter()
		if lot == nil || lot.StepSize == "" {
			return fmt.Errorf("no lot size filter published for %s", c.symbol)
		}
		c.quantityStep = lot.StepSize
		c.pricePrecision = s.PricePrecision
		c.marginAsset = s.MarginAsset
		return nil
	}
	return fmt.Errorf("symbol %s not listed", c.symbol)
}

// Candles fetches the most recent closed klines, oldest first.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	var klines []*futures.Kline
	err := retryRead(ctx, "klines", func() error {
		var e error
		klines, e = c.api.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}

	candles := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := klineToCandle(k)
		if err != nil {
			return nil, fmt.Errorf("parse kline at %d: %w", k.OpenTime, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func klineToCandle(k *futures.Kline) (market.Candle, error) {
	var (
		c   market.Candle
		err error
	)
	c.Time = time.UnixMilli(k.OpenTime).UTC()
	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, fmt.Errorf("open %q: %w", k.Open, err)
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, fmt.Errorf("high %q: %w", k.High, err)
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, fmt.Errorf("low %q: %w", k.Low, err)
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, fmt.Errorf("close %q: %w", k.Close, err)
	}
	if c.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return c, fmt.Errorf("volume %q: %w", k.Volume, err)
	}
	return c, nil
}

// Balance returns the available margin-asset balance.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var balances []*futures.Balance
	err := retryRead(ctx, "balance", func() error {
		var e error
		balances, e = c.api.NewGetBalanceService().Do(ctx)
		return e
	})
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}

	for _, b := range balances {
		if b.Asset != c.marginAsset {
			continue
		}
		v, err := strconv.ParseFloat(b.AvailableBalance, 64)
		if err != nil {
			return 0, fmt.Errorf("parse balance %q: %w", b.AvailableBalance, err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("no %s balance on account", c.marginAsset)
}

// SubmitOrder places a market order and then its protective stop-market
// and take-profit-market pair. Submission is never retried: a failed
// submit leaves the intent unrealized and the next cycle starts fresh.
// If the entry fills but a protective order is rejected, the gateway
// first tries to flatten the position with a reduce-only market order;
// when even that fails, the fill is returned with
// broker.ErrUnprotectedPosition so the caller can adopt the position.
func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderFill, error) {
	var fill broker.OrderFill

	qty, err := roundToStep(req.Quantity, c.quantityStep)
	if err != nil {
		return fill, fmt.Errorf("round quantity %g to step %s: %w", req.Quantity, c.quantityStep, err)
	}

	entrySide := futures.SideTypeBuy
	exitSide := futures.SideTypeSell
	if req.Side == market.Short {
		entrySide, exitSide = exitSide, entrySide
	}

	order, err := c.api.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(entrySide).
		Type(futures.OrderTypeMarket).
		Quantity(qty).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT).
		Do(ctx)
	if err != nil {
		return fill, fmt.Errorf("submit %s market order: %w", req.Side, err)
	}

	avg, err := strconv.ParseFloat(order.AvgPrice, 64)
	if err != nil || avg <= 0 {
		return fill, fmt.Errorf("order %d filled with unusable average price %q", order.OrderID, order.AvgPrice)
	}
	executed, err := strconv.ParseFloat(order.ExecutedQuantity, 64)
	if err != nil {
		return fill, fmt.Errorf("parse executed quantity %q: %w", order.ExecutedQuantity, err)
	}

	fill = broker.OrderFill{
		OrderID:  strconv.FormatInt(order.OrderID, 10),
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: executed,
		Price:    avg,
		Time:     time.UnixMilli(order.UpdateTime).UTC(),
	}

	stopID, err := c.placeClosingStop(ctx, req.Symbol, exitSide, futures.OrderTypeStopMarket, req.StopLoss)
	if err != nil {
		return c.bailUnprotected(ctx, fill, exitSide, qty,
			fmt.Errorf("stop-loss rejected: %w", err))
	}
	fill.StopOrderID = stopID

	tpID, err := c.placeClosingStop(ctx, req.Symbol, exitSide, futures.OrderTypeTakeProfitMarket, req.TakeProfit)
	if err != nil {
		if cerr := c.CancelOrder(ctx, req.Symbol, stopID); cerr != nil {
			logger.Error("cancel orphaned stop failed",
				zap.String("order_id", stopID), zap.Error(cerr))
		}
		return c.bailUnprotected(ctx, fill, exitSide, qty,
			fmt.Errorf("take-profit rejected: %w", err))
	}
	fill.TakeProfitOrderID = tpID

	return fill, nil
}

// bailUnprotected handles an entry that filled without its protective
// pair: flatten with a reduce-only market order, or hand the naked
// position back to the caller.
func (c *Client) bailUnprotected(ctx context.Context, fill broker.OrderFill, exitSide futures.SideType, qty string, cause error) (broker.OrderFill, error) {
	_, err := c.api.NewCreateOrderService().
		Symbol(fill.Symbol).
		Side(exitSide).
		Type(futures.OrderTypeMarket).
		Quantity(qty).
		ReduceOnly(true).
		Do(ctx)
	if err == nil {
		return broker.OrderFill{}, fmt.Errorf("order %s flattened: %v", fill.OrderID, cause)
	}

	logger.Error("flatten after protective failure failed, position is naked",
		zap.String("order_id", fill.OrderID),
		zap.Error(err))
	return fill, fmt.Errorf("order %s: %v: %w", fill.OrderID, cause, broker.ErrUnprotectedPosition)
}

func (c *Client) placeClosingStop(ctx context.Context, symbol string, exitSide futures.SideType, orderType futures.OrderType, trigger float64) (string, error) {
	o, err := c.api.NewCreateOrderService().
		Symbol(symbol).
		Side(exitSide).
		Type(orderType).
		StopPrice(c.formatPrice(trigger)).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(o.OrderID, 10), nil
}

// ReplaceStop amends the resting protective stop by cancel-and-replace,
// keeping the venue's stop in lockstep with the book stop.
func (c *Client) ReplaceStop(ctx context.Context, symbol, orderID string, side market.Side, stop float64) (string, error) {
	if orderID != "" {
		if err := c.CancelOrder(ctx, symbol, orderID); err != nil {
			return "", fmt.Errorf("cancel stop order %s: %w", orderID, err)
		}
	}

	exitSide := futures.SideTypeSell
	if side == market.Short {
		exitSide = futures.SideTypeBuy
	}
	newID, err := c.placeClosingStop(ctx, symbol, exitSide, futures.OrderTypeStopMarket, stop)
	if err != nil {
		return "", fmt.Errorf("place replacement stop at %g: %w", stop, err)
	}
	return newID, nil
}

// CancelOrder removes a resting order by id.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad order id %q: %w", orderID, err)
	}
	if _, err := c.api.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

func (c *Client) formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', c.pricePrecision, 64)
}
