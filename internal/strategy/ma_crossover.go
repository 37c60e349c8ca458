package strategy

import (
	"context"
	"fmt"
	"time"

	"kis-trading-bot/internal/indicator"
	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

// Default MACrossover parameters.
const (
	DefaultFastWindow = 5
	DefaultSlowWindow = 20
)

// MACrossoverParams configures an MACrossover strategy.
type MACrossoverParams struct {
	FastWindow int
	SlowWindow int
}

// MACrossover emits BUY when the fast moving average crosses above the slow
// one on the latest candle, SELL on the opposite cross, and HOLD otherwise.
type MACrossover struct {
	p MACrossoverParams
}

var _ interfaces.Strategy = (*MACrossover)(nil)

// NewMACrossover validates the windows and returns the strategy. Zero-value
// fields fall back to the defaults.
func NewMACrossover(p MACrossoverParams) (*MACrossover, error) {
	if p.FastWindow == 0 {
		p.FastWindow = DefaultFastWindow
	}
	if p.SlowWindow == 0 {
		p.SlowWindow = DefaultSlowWindow
	}
	if p.FastWindow < 0 || p.SlowWindow < 0 {
		return nil, fmt.Errorf("moving average windows must be positive, got %d/%d", p.FastWindow, p.SlowWindow)
	}
	if p.FastWindow >= p.SlowWindow {
		return nil, fmt.Errorf("fast window (%d) must be shorter than slow window (%d)", p.FastWindow, p.SlowWindow)
	}
	return &MACrossover{p: p}, nil
}

func (s *MACrossover) Name() string { return "ma_crossover" }

// Analyze implements interfaces.Strategy. Detecting a cross needs both the
// latest and the previous slow average, so the minimum history is one candle
// more than the slow window.
func (s *MACrossover) Analyze(ctx context.Context, symbol string, series []types.Candle, currentPrice float64) types.SignalResult {
	if len(series) < s.p.SlowWindow+1 {
		logger.Warn(ctx, "Insufficient history for analysis",
			"symbol", symbol, "strategy", s.Name(), "required", s.p.SlowWindow+1, "have", len(series))
		return types.SignalResult{
			Symbol:             symbol,
			Timestamp:          time.Now(),
			CurrentMarketPrice: types.Float(currentPrice),
			Signal:             types.SignalNoData,
			Reason:             "insufficient historical data",
			Indicators:         map[string]*float64{},
		}
	}

	fast := indicator.RollingSMA(series, s.p.FastWindow)
	slow := indicator.RollingSMA(series, s.p.SlowWindow)
	n := len(series)
	curFast, prevFast := fast[n-1], fast[n-2]
	curSlow, prevSlow := slow[n-1], slow[n-2]
	lastClose := series[n-1].Close
	lastDate := series[n-1].Date

	snapshot := map[string]*float64{
		"sma_fast": types.FloatOrNil(curFast),
		"sma_slow": types.FloatOrNil(curSlow),
	}
	if !types.Present(curFast) || !types.Present(prevFast) ||
		!types.Present(curSlow) || !types.Present(prevSlow) {
		return types.SignalResult{
			Symbol:             symbol,
			Timestamp:          lastDate,
			PriceAtSignal:      types.Float(lastClose),
			CurrentMarketPrice: types.Float(currentPrice),
			Signal:             types.SignalNoIndicator,
			Reason:             "indicator computation failed for latest period",
			Indicators:         snapshot,
		}
	}

	var signal types.Signal
	var reason string
	switch {
	case prevFast <= prevSlow && curFast > curSlow:
		signal = types.SignalBuy
		reason = fmt.Sprintf("fast SMA (%.2f) crossed above slow SMA (%.2f)", curFast, curSlow)
	case prevFast >= prevSlow && curFast < curSlow:
		signal = types.SignalSell
		reason = fmt.Sprintf("fast SMA (%.2f) crossed below slow SMA (%.2f)", curFast, curSlow)
	default:
		signal = types.SignalHold
		reason = "no crossover on latest candle"
	}

	logger.Info(ctx, "Strategy decision",
		"symbol", symbol,
		"strategy", s.Name(),
		"signal", string(signal),
		"sma_fast", curFast,
		"sma_slow", curSlow,
	)
	return types.SignalResult{
		Symbol:             symbol,
		Timestamp:          lastDate,
		PriceAtSignal:      types.Float(lastClose),
		CurrentMarketPrice: types.Float(currentPrice),
		Signal:             signal,
		Reason:             reason,
		Indicators:         snapshot,
	}
}
