package brokerobs

import (
	"context"
	"fmt"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{
		broker: broker,
	}
}

// LTP returns the last traded price with observability
func (ob *observableBroker) LTP(ctx context.Context, pair string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.LTP")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching LTP", "pair", pair)

	price, err := ob.broker.LTP(ctx, pair)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch LTP", err, "pair", pair)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "LTP fetched successfully", "pair", pair, "price", price)
	return price, nil
}

// RecentCandles fetches candles with observability
func (ob *observableBroker) RecentCandles(ctx context.Context, pair, interval string, n int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.RecentCandles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching recent candles", "pair", pair, "interval", interval, "count", n)

	candles, err := ob.broker.RecentCandles(ctx, pair, interval, n)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err, "pair", pair, "interval", interval, "count", n)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Candles fetched successfully", "pair", pair, "count", len(candles))
	return candles, nil
}

// Ticker24h fetches the 24h market summary with observability
func (ob *observableBroker) Ticker24h(ctx context.Context, pair string) (types.Ticker, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Ticker24h")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching 24h ticker", "pair", pair)

	t, err := ob.broker.Ticker24h(ctx, pair)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch 24h ticker", err, "pair", pair)
		return types.Ticker{}, err
	}

	logger.DebugSkip(ctx, 1, "24h ticker fetched successfully",
		"pair", pair,
		"last", t.Last,
		"change_pct", t.ChangePct24h,
	)
	return t, nil
}

// Balance fetches account balances with observability
func (ob *observableBroker) Balance(ctx context.Context) (float64, float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Balance")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching account balance")

	equity, available, err := ob.broker.Balance(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err)
		return 0, 0, err
	}

	logger.DebugSkip(ctx, 1, "Balance fetched successfully", "equity", equity, "available", available)
	return equity, available, nil
}

// PlaceOrder places an order with observability
func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"pair", req.Pair,
		"side", req.Side,
		"qty", req.Qty,
		"tag", req.Tag,
	)

	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"pair", req.Pair,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"pair", req.Pair,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

// Start initializes the broker with observability
func (ob *observableBroker) Start(ctx context.Context, pairs []string) error {
	ctx, span := trace.StartSpan(ctx, "broker.Start")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting broker", "pairs", pairs, "count", len(pairs))

	err := ob.broker.Start(ctx, pairs)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to start broker", err, "pairs", pairs)
		return fmt.Errorf("broker start failed: %w", err)
	}

	logger.InfoSkip(ctx, 1, "Broker started successfully", "pairs", pairs)
	return nil
}

// Stop shuts down the broker with observability
func (ob *observableBroker) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "broker.Stop")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Stopping broker")
	ob.broker.Stop(ctx)
	logger.InfoSkip(ctx, 1, "Broker stopped successfully")
}
