// Package engine orchestrates market data, indicator strategies and order
// execution. Analysis never returns an error to its caller: every failure is
// folded into the result's Signal field so one bad symbol cannot take down a
// scan or an API response.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kis-trading-bot/internal/dataprep"
	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/tradelog"
	"kis-trading-bot/internal/types"
)

// DefaultLookbackDays is the calendar window requested from the brokerage
// when the configuration does not set one.
const DefaultLookbackDays = 90

// Options tunes engine behavior.
type Options struct {
	// LookbackDays is the calendar span of history fetched per analysis.
	LookbackDays int
	// DryRun short-circuits order placement with simulated fills.
	DryRun bool
}

type Engine struct {
	brk  interfaces.Broker
	prep *dataprep.Preparer
	opts Options

	mu    sync.RWMutex
	strat interfaces.Strategy
}

var _ interfaces.Engine = (*Engine)(nil)

func New(brk interfaces.Broker, strat interfaces.Strategy, opts Options) *Engine {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	return &Engine{
		brk:   brk,
		prep:  dataprep.New(brk),
		opts:  opts,
		strat: strat,
	}
}

// SetStrategy swaps the active strategy. Safe to call while scans run; the
// new strategy applies from the next analysis.
func (e *Engine) SetStrategy(s interfaces.Strategy) {
	e.mu.Lock()
	e.strat = s
	e.mu.Unlock()
}

// ActiveStrategy returns the strategy currently in use.
func (e *Engine) ActiveStrategy() interfaces.Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.strat
}

// AnalyzeStock runs the full pipeline for one symbol: current price, history
// fetch, preparation, strategy analysis. A current-price failure aborts
// before any strategy work, and an empty prepared series answers NO_DATA
// without invoking the strategy.
func (e *Engine) AnalyzeStock(ctx context.Context, symbol string) types.SignalResult {
	op := logger.StartOperation(ctx, "analyze_stock", "symbol", symbol)
	ctx = op.Context()

	price, err := e.brk.CurrentPrice(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch current price", err, "symbol", symbol)
		op.EndWithError(err)
		return e.errorResult(symbol, fmt.Sprintf("failed to fetch current price: %v", err))
	}

	series, err := e.prep.FetchAndPrepare(ctx, symbol, e.opts.LookbackDays)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to prepare historical data", err, "symbol", symbol)
		op.EndWithError(err)
		return e.errorResult(symbol, fmt.Sprintf("failed to fetch historical data: %v", err))
	}

	strat := e.ActiveStrategy()
	var res types.SignalResult
	if len(series) == 0 {
		// No usable history at all: answer NO_DATA without paying for
		// strategy work.
		logger.Warn(ctx, "No historical data for symbol", "symbol", symbol)
		res = types.SignalResult{
			Symbol:             symbol,
			Timestamp:          time.Now(),
			CurrentMarketPrice: types.Float(price),
			Signal:             types.SignalNoData,
			Reason:             "no historical data available",
			Indicators:         map[string]*float64{},
		}
	} else {
		res = strat.Analyze(ctx, symbol, series, price)
		res.Symbol = symbol
	}

	if err := tradelog.AppendSignal(tradelog.SignalEntry{
		Symbol:     symbol,
		Signal:     string(res.Signal),
		Reason:     res.Reason,
		Price:      res.PriceAtSignal,
		Strategy:   strat.Name(),
		Indicators: res.Indicators,
	}); err != nil {
		logger.Warn(ctx, "Failed to append signal audit entry", "symbol", symbol, "error", err)
	}
	logger.Signal(ctx, symbol, string(res.Signal), res.Reason, "strategy", strat.Name())

	op.End("signal", string(res.Signal))
	return res
}

// ScanStocks analyzes each symbol independently, returning one result per
// input symbol in input order. A panic inside one symbol's analysis becomes
// that symbol's ERROR result.
func (e *Engine) ScanStocks(ctx context.Context, symbols []string) []types.SignalResult {
	op := logger.StartOperation(ctx, "scan_stocks", "count", len(symbols))
	ctx = op.Context()

	results := make([]types.SignalResult, len(symbols))
	for i, symbol := range symbols {
		results[i] = e.analyzeRecovering(ctx, symbol)
	}
	op.End()
	return results
}

func (e *Engine) analyzeRecovering(ctx context.Context, symbol string) (res types.SignalResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Analysis panicked", "symbol", symbol, "panic", r)
			res = e.errorResult(symbol, fmt.Sprintf("internal error: %v", r))
		}
	}()
	return e.AnalyzeStock(ctx, symbol)
}

// ExecuteOrder forwards the order to the brokerage, or simulates a fill in
// dry-run mode. Failures come back in the result, never as an error.
func (e *Engine) ExecuteOrder(ctx context.Context, req types.OrderRequest) types.OrderResult {
	op := logger.StartOperation(ctx, "execute_order",
		"symbol", req.Symbol, "side", string(req.Side), "qty", req.Quantity)
	ctx = op.Context()

	res := e.placeOrder(ctx, req)

	if err := tradelog.AppendOrder(tradelog.OrderEntry{
		Symbol:  req.Symbol,
		Side:    string(req.Side),
		Qty:     req.Quantity,
		Price:   req.Price,
		OrderID: res.OrderID,
		Success: res.Success,
		Error:   res.Error,
	}); err != nil {
		logger.Warn(ctx, "Failed to append order audit entry", "symbol", req.Symbol, "error", err)
	}

	if res.Success {
		logger.Trade(ctx, req.Symbol, string(req.Side), req.Quantity, req.Price, res.OrderID)
		op.End("order_id", res.OrderID)
	} else {
		op.EndWithError(fmt.Errorf("order rejected: %s", res.Error))
	}
	return res
}

func (e *Engine) placeOrder(ctx context.Context, req types.OrderRequest) types.OrderResult {
	if req.Symbol == "" {
		return types.OrderResult{Success: false, Error: "symbol is required"}
	}
	if req.Quantity <= 0 {
		return types.OrderResult{Success: false, Error: fmt.Sprintf("quantity must be positive, got %d", req.Quantity)}
	}
	if req.Side != types.OrderBuy && req.Side != types.OrderSell {
		return types.OrderResult{Success: false, Error: fmt.Sprintf("unknown order side %q", req.Side)}
	}

	if e.opts.DryRun {
		logger.Info(ctx, "Dry-run order simulated",
			"symbol", req.Symbol, "side", string(req.Side), "qty", req.Quantity, "price", req.Price)
		return types.OrderResult{
			Success: true,
			OrderID: fmt.Sprintf("DRYRUN-%d", time.Now().UnixNano()),
			Details: map[string]any{"dry_run": true},
		}
	}

	res, err := e.brk.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order placement failed", err, "symbol", req.Symbol)
		return types.OrderResult{Success: false, Error: err.Error()}
	}
	return res
}

// PortfolioDetails returns a fresh account snapshot from the brokerage.
func (e *Engine) PortfolioDetails(ctx context.Context) (types.PortfolioSnapshot, error) {
	op := logger.StartOperation(ctx, "portfolio_details")
	ctx = op.Context()

	snap, err := e.brk.AccountBalance(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch account balance", err)
		op.EndWithError(err)
		return types.PortfolioSnapshot{}, fmt.Errorf("fetch account balance: %w", err)
	}
	op.End("holdings", len(snap.Holdings))
	return snap, nil
}

func (e *Engine) errorResult(symbol, reason string) types.SignalResult {
	return types.SignalResult{
		Symbol:     symbol,
		Timestamp:  time.Now(),
		Signal:     types.SignalError,
		Reason:     reason,
		Indicators: map[string]*float64{},
	}
}
