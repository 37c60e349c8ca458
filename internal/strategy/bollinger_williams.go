// Package strategy holds the pluggable decision units that turn an analyzed
// candle series into a trading signal.
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

// Default BollingerWilliams parameters.
const (
	DefaultBBWindow     = 20
	DefaultBBStdDev     = 2.0
	DefaultWRPeriod     = 14
	DefaultWROversold   = -80.0
	DefaultWROverbought = -20.0
)

// BollingerWilliamsParams configures a BollingerWilliams strategy.
type BollingerWilliamsParams struct {
	BBWindow     int
	BBStdDev     float64
	WRPeriod     int
	WROversold   float64
	WROverbought float64
	SourceField  string
}

// DefaultBollingerWilliamsParams returns the canonical 20/2/14/-80/-20
// parameter set over closing prices.
func DefaultBollingerWilliamsParams() BollingerWilliamsParams {
	return BollingerWilliamsParams{
		BBWindow:     DefaultBBWindow,
		BBStdDev:     DefaultBBStdDev,
		WRPeriod:     DefaultWRPeriod,
		WROversold:   DefaultWROversold,
		WROverbought: DefaultWROverbought,
		SourceField:  "close",
	}
}

// BollingerWilliams emits BUY when price closes below the lower Bollinger
// band while Williams %R is oversold, SELL on the mirrored condition, and
// HOLD otherwise.
type BollingerWilliams struct {
	p BollingerWilliamsParams
}

var _ interfaces.Strategy = (*BollingerWilliams)(nil)

// NewBollingerWilliams validates the parameters and returns the strategy.
// Zero-value fields fall back to the defaults.
func NewBollingerWilliams(p BollingerWilliamsParams) (*BollingerWilliams, error) {
	if p.BBWindow == 0 {
		p.BBWindow = DefaultBBWindow
	}
	if p.BBStdDev == 0 {
		p.BBStdDev = DefaultBBStdDev
	}
	if p.WRPeriod == 0 {
		p.WRPeriod = DefaultWRPeriod
	}
	if p.WROversold == 0 {
		p.WROversold = DefaultWROversold
	}
	if p.WROverbought == 0 {
		p.WROverbought = DefaultWROverbought
	}
	if p.SourceField == "" {
		p.SourceField = "close"
	}

	if p.BBWindow < 0 || p.WRPeriod < 0 {
		return nil, fmt.Errorf("bollinger window and williams period must be positive, got %d/%d", p.BBWindow, p.WRPeriod)
	}
	// Probe the source field so a bad name fails at construction rather
	// than on the first analysis.
	if err := indicator.ComputeBollingerBands(nil, nil, indicator.BollingerConfig{
		Window:      p.BBWindow,
		StdDevMult:  p.BBStdDev,
		SourceField: p.SourceField,
	}); err != nil {
		return nil, err
	}
	return &BollingerWilliams{p: p}, nil
}

func (s *BollingerWilliams) Name() string { return "bollinger_williams" }

// Analyze implements interfaces.Strategy. It never mutates series and
// reports every data problem through the result's Signal field.
func (s *BollingerWilliams) Analyze(ctx context.Context, symbol string, series []types.Candle, currentPrice float64) types.SignalResult {
	need := s.p.BBWindow
	if s.p.WRPeriod > need {
		need = s.p.WRPeriod
	}
	if len(series) < need {
		logger.Warn(ctx, "Insufficient history for analysis",
			"symbol", symbol, "strategy", s.Name(), "required", need, "have", len(series))
		return types.SignalResult{
			Symbol:             symbol,
			Timestamp:          time.Now(),
			CurrentMarketPrice: types.Float(currentPrice),
			Signal:             types.SignalNoData,
			Reason:             "insufficient historical data",
			Indicators:         map[string]*float64{},
		}
	}

	rows := indicator.NewRows(series)
	bbErr := indicator.ComputeBollingerBands(series, rows, indicator.BollingerConfig{
		Window:      s.p.BBWindow,
		StdDevMult:  s.p.BBStdDev,
		SourceField: s.p.SourceField,
	})
	wrErr := indicator.ComputeWilliamsR(series, rows, s.p.WRPeriod)
	if bbErr != nil || wrErr != nil {
		// Parameters are validated at construction, so this is a caller bug.
		err := bbErr
		if err == nil {
			err = wrErr
		}
		logger.ErrorWithErr(ctx, "Indicator computation rejected inputs", err, "symbol", symbol)
		return types.SignalResult{
			Symbol:             symbol,
			Timestamp:          time.Now(),
			CurrentMarketPrice: types.Float(currentPrice),
			Signal:             types.SignalError,
			Reason:             err.Error(),
		}
	}

	last := rows[len(rows)-1]
	lastDate := series[len(series)-1].Date
	snapshot := map[string]*float64{
		"bollinger_lower":  types.FloatOrNil(last.BBLower),
		"bollinger_middle": types.FloatOrNil(last.BBMiddle),
		"bollinger_upper":  types.FloatOrNil(last.BBUpper),
		"williams_r":       types.FloatOrNil(last.WilliamsR),
	}

	if !types.Present(last.Close) || !types.Present(last.BBLower) ||
		!types.Present(last.BBUpper) || !types.Present(last.WilliamsR) {
		logger.Warn(ctx, "Indicators absent for latest period", "symbol", symbol, "strategy", s.Name())
		return types.SignalResult{
			Symbol:             symbol,
			Timestamp:          lastDate,
			PriceAtSignal:      types.FloatOrNil(last.Close),
			CurrentMarketPrice: types.Float(currentPrice),
			Signal:             types.SignalNoIndicator,
			Reason:             "indicator computation failed for latest period",
			Indicators:         snapshot,
		}
	}

	signal, reason := s.decide(last.Close, last.BBLower, last.BBUpper, last.WilliamsR)
	logger.Info(ctx, "Strategy decision",
		"symbol", symbol,
		"strategy", s.Name(),
		"signal", string(signal),
		"close", last.Close,
		"bb_lower", last.BBLower,
		"bb_upper", last.BBUpper,
		"williams_r", last.WilliamsR,
	)

	return types.SignalResult{
		Symbol:             symbol,
		Timestamp:          lastDate,
		PriceAtSignal:      types.Float(last.Close),
		CurrentMarketPrice: types.Float(currentPrice),
		Signal:             signal,
		Reason:             reason,
		Indicators:         snapshot,
	}
}

// decide applies the rule set to the latest row. BUY and SELL are mutually
// exclusive: a close cannot be below the lower band and above the upper
// band at once.
func (s *BollingerWilliams) decide(lastClose, lowerBand, upperBand, wr float64) (types.Signal, string) {
	switch {
	case lastClose < lowerBand && wr < s.p.WROversold:
		return types.SignalBuy, fmt.Sprintf(
			"price (%.2f) below lower band (%.2f) and williams %%R (%.2f < %.2f) indicates oversold",
			lastClose, lowerBand, wr, s.p.WROversold)
	case lastClose > upperBand && wr > s.p.WROverbought:
		return types.SignalSell, fmt.Sprintf(
			"price (%.2f) above upper band (%.2f) and williams %%R (%.2f > %.2f) indicates overbought",
			lastClose, upperBand, wr, s.p.WROverbought)
	default:
		return types.SignalHold, "no clear signal under current strategy"
	}
}
