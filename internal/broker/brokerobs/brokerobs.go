// Package brokerobs wraps a broker with logging and tracing so the adapters
// stay focused on wire mechanics.
package brokerobs

import (
	"context"

	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/trace"
	"kis-trading-bot/internal/types"
)

type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware.
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.CurrentPrice")
	defer span.End()

	price, err := ob.broker.CurrentPrice(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch current price", err, "symbol", symbol)
		return 0, err
	}
	logger.Debug(ctx, "Current price fetched", "symbol", symbol, "price", price)
	return price, nil
}

func (ob *observableBroker) HistoricalOHLCV(ctx context.Context, symbol, startDate, endDate string) ([]types.RawCandle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.HistoricalOHLCV")
	defer span.End()

	candles, err := ob.broker.HistoricalOHLCV(ctx, symbol, startDate, endDate)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch historical data", err,
			"symbol", symbol, "start", startDate, "end", endDate)
		return nil, err
	}
	logger.Debug(ctx, "Historical data fetched", "symbol", symbol, "rows", len(candles))
	return candles, nil
}

func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.Info(ctx, "Placing order",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"qty", req.Quantity,
		"condition", req.Condition,
	)
	res, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to place order", err,
			"symbol", req.Symbol, "side", string(req.Side), "qty", req.Quantity)
		return types.OrderResult{}, err
	}
	logger.Info(ctx, "Order placed", "symbol", req.Symbol, "order_id", res.OrderID)
	return res, nil
}

func (ob *observableBroker) AccountBalance(ctx context.Context) (types.PortfolioSnapshot, error) {
	ctx, span := trace.StartSpan(ctx, "broker.AccountBalance")
	defer span.End()

	snap, err := ob.broker.AccountBalance(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch account balance", err)
		return types.PortfolioSnapshot{}, err
	}
	logger.Debug(ctx, "Account balance fetched", "holdings", len(snap.Holdings))
	return snap, nil
}
