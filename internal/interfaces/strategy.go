package interfaces

import (
	"context"

	"kis-trading-bot/internal/types"
)

// Strategy turns a prepared candle series plus the current market price into
// a trading signal. Implementations must be pure over their inputs (aside
// from logging) and must never mutate the series.
type Strategy interface {
	Analyze(ctx context.Context, symbol string, series []types.Candle, currentPrice float64) types.SignalResult

	// Name identifies the strategy in logs and signal audit entries.
	Name() string
}
