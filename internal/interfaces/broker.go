package interfaces

import (
	"context"

	"kis-trading-bot/internal/types"
)

// Broker is the brokerage collaborator boundary. Implementations own token
// and auth lifecycle, HTTP retries, and brokerage error codes; callers only
// see the request/response contract below.
type Broker interface {
	// CurrentPrice returns the latest traded price for symbol. A price that
	// cannot be obtained is reported as an error, never as zero.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)

	// HistoricalOHLCV returns raw daily rows for [startDate, endDate], both
	// in YYYYMMDD format. The rows are unnormalized and in brokerage order.
	HistoricalOHLCV(ctx context.Context, symbol, startDate, endDate string) ([]types.RawCandle, error)

	// PlaceOrder submits a buy/sell order.
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)

	// AccountBalance returns current holdings and the account summary.
	AccountBalance(ctx context.Context) (types.PortfolioSnapshot, error)
}
