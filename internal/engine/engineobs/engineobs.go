// Package engineobs wraps an engine with span and timing instrumentation so
// the core engine stays free of boundary logging.
package engineobs

import (
	"context"
	"time"

	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/trace"
	"kis-trading-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: eng}
}

func (oe *observableEngine) AnalyzeStock(ctx context.Context, symbol string) types.SignalResult {
	ctx, span := trace.StartSpan(ctx, "engine.AnalyzeStock")
	defer span.End()

	start := time.Now()
	result := oe.engine.AnalyzeStock(ctx, symbol)
	logger.Info(ctx, "Analysis completed",
		"symbol", symbol,
		"signal", string(result.Signal),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

func (oe *observableEngine) ScanStocks(ctx context.Context, symbols []string) []types.SignalResult {
	ctx, span := trace.StartSpan(ctx, "engine.ScanStocks")
	defer span.End()

	start := time.Now()
	logger.Info(ctx, "Starting scan", "symbols", len(symbols))
	results := oe.engine.ScanStocks(ctx, symbols)

	counts := map[types.Signal]int{}
	for _, r := range results {
		counts[r.Signal]++
	}
	logger.Info(ctx, "Scan completed",
		"symbols", len(symbols),
		"buy", counts[types.SignalBuy],
		"sell", counts[types.SignalSell],
		"hold", counts[types.SignalHold],
		"errors", counts[types.SignalError],
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results
}

func (oe *observableEngine) ExecuteOrder(ctx context.Context, req types.OrderRequest) types.OrderResult {
	ctx, span := trace.StartSpan(ctx, "engine.ExecuteOrder")
	defer span.End()

	start := time.Now()
	result := oe.engine.ExecuteOrder(ctx, req)
	logger.Info(ctx, "Order execution completed",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"success", result.Success,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

func (oe *observableEngine) PortfolioDetails(ctx context.Context) (types.PortfolioSnapshot, error) {
	ctx, span := trace.StartSpan(ctx, "engine.PortfolioDetails")
	defer span.End()

	start := time.Now()
	snap, err := oe.engine.PortfolioDetails(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Portfolio fetch failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return snap, err
	}
	logger.Info(ctx, "Portfolio fetched",
		"holdings", len(snap.Holdings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

func (oe *observableEngine) SetStrategy(s interfaces.Strategy) {
	logger.Info(context.Background(), "Strategy changed", "strategy", s.Name())
	oe.engine.SetStrategy(s)
}
