package interfaces

import (
	"context"

	"kis-trading-bot/internal/types"
)

// Engine is the trading orchestrator exposed to the HTTP API and the
// scheduler.
type Engine interface {
	// AnalyzeStock analyzes a single symbol. Data problems are reported in
	// the result's Signal field (ERROR, NO_DATA, NO_INDICATOR), never as a
	// panic or error escaping to the caller.
	AnalyzeStock(ctx context.Context, symbol string) types.SignalResult

	// ScanStocks analyzes each symbol independently and returns one result
	// per input symbol in the same order. One symbol's failure never aborts
	// the batch.
	ScanStocks(ctx context.Context, symbols []string) []types.SignalResult

	// ExecuteOrder forwards a manual order to the brokerage.
	ExecuteOrder(ctx context.Context, req types.OrderRequest) types.OrderResult

	// PortfolioDetails returns a fresh snapshot of account holdings.
	PortfolioDetails(ctx context.Context) (types.PortfolioSnapshot, error)

	// SetStrategy swaps the active strategy; takes effect on the next call.
	SetStrategy(s Strategy)
}
