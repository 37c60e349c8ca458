// Package indicator computes technical indicators over a prepared candle
// series. Values that cannot be computed for a row are NaN; callers use
// types.Present to tell absent apart from zero.
//
// Standard deviation is the population convention (divide by n), matching
// the rolling std dev the original signal rules were tuned against.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"kis-trading-bot/internal/types"
)

// ErrMissingField reports that a caller named a source field the series does
// not carry. This is a caller contract violation, not a data condition.
var ErrMissingField = errors.New("indicator: missing required field")

// BollingerConfig parameterizes ComputeBollingerBands.
type BollingerConfig struct {
	Window      int
	StdDevMult  float64
	SourceField string
}

// DefaultBollinger returns the standard 20-period, 2-sigma configuration
// over closing prices.
func DefaultBollinger() BollingerConfig {
	return BollingerConfig{Window: 20, StdDevMult: 2, SourceField: "close"}
}

// NewRows builds one indicator row per candle with the close carried over
// and every derived field marked absent.
func NewRows(series []types.Candle) []types.IndicatorRow {
	rows := make([]types.IndicatorRow, len(series))
	nan := math.NaN()
	for i, c := range series {
		rows[i] = types.IndicatorRow{
			Close:       c.Close,
			BBMiddle:    nan,
			BBUpper:     nan,
			BBLower:     nan,
			BBPercentB:  nan,
			BBBandwidth: nan,
			WilliamsR:   nan,
		}
	}
	return rows
}

// ComputeBollingerBands fills the bb* fields of rows, one row per candle.
// When the whole series is shorter than the window every row stays absent;
// in a long enough series only the first window-1 rows stay absent. The
// input series is never modified.
func ComputeBollingerBands(series []types.Candle, rows []types.IndicatorRow, cfg BollingerConfig) error {
	if cfg.Window <= 0 {
		return fmt.Errorf("bollinger window must be positive, got %d", cfg.Window)
	}
	src, err := sourceValues(series, cfg.SourceField)
	if err != nil {
		return err
	}
	if len(series) < cfg.Window {
		return nil
	}

	for i := cfg.Window - 1; i < len(src); i++ {
		win := src[i-cfg.Window+1 : i+1]
		mid := mean(win)
		sd := stdDev(win, mid)
		up := mid + cfg.StdDevMult*sd
		low := mid - cfg.StdDevMult*sd

		rows[i].BBMiddle = mid
		rows[i].BBUpper = up
		rows[i].BBLower = low
		if up != low {
			rows[i].BBPercentB = (series[i].Close - low) / (up - low)
		}
		if mid != 0 {
			rows[i].BBBandwidth = (up - low) / mid
		}
	}
	return nil
}

// ComputeWilliamsR fills the WilliamsR field of rows over a trailing
// high/low window including the current candle. The value is in [-100, 0]:
// -100 at the period low, 0 at the period high. A flat window (highest high
// equals lowest low) yields an absent value. The same whole-series-too-short
// policy as ComputeBollingerBands applies.
func ComputeWilliamsR(series []types.Candle, rows []types.IndicatorRow, period int) error {
	if period <= 0 {
		return fmt.Errorf("williams %%r period must be positive, got %d", period)
	}
	if len(series) < period {
		return nil
	}

	for i := period - 1; i < len(series); i++ {
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			hh = math.Max(hh, series[j].High)
			ll = math.Min(ll, series[j].Low)
		}
		if hh == ll {
			continue
		}
		rows[i].WilliamsR = (hh - series[i].Close) / (hh - ll) * -100
	}
	return nil
}

// RollingSMA returns the trailing simple moving average of closes, one value
// per candle, NaN where fewer than window candles precede (and everywhere
// when the whole series is shorter than the window).
func RollingSMA(series []types.Candle, window int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(series) < window {
		return out
	}
	sum := 0.0
	for i, c := range series {
		sum += c.Close
		if i >= window {
			sum -= series[i-window].Close
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

func sourceValues(series []types.Candle, field string) ([]float64, error) {
	pick, ok := map[string]func(types.Candle) float64{
		"open":  func(c types.Candle) float64 { return c.Open },
		"high":  func(c types.Candle) float64 { return c.High },
		"low":   func(c types.Candle) float64 { return c.Low },
		"close": func(c types.Candle) float64 { return c.Close },
	}[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, field)
	}
	out := make([]float64, len(series))
	for i, c := range series {
		out[i] = pick(c)
	}
	return out, nil
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stdDev(vals []float64, m float64) float64 {
	s := 0.0
	for _, v := range vals {
		d := v - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(vals)))
}
