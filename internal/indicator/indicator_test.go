package indicator

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"kis-trading-bot/internal/types"
)

func daySeries(closes ...float64) []types.Candle {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make([]types.Candle, len(closes))
	for i, c := range closes {
		series[i] = types.Candle{
			Date:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBollingerAllAbsentWhenSeriesTooShort(t *testing.T) {
	cfg := DefaultBollinger()
	series := daySeries(make([]float64, cfg.Window-1)...)
	rows := NewRows(series)

	if err := ComputeBollingerBands(series, rows, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if types.Present(r.BBMiddle) || types.Present(r.BBUpper) || types.Present(r.BBLower) ||
			types.Present(r.BBPercentB) || types.Present(r.BBBandwidth) {
			t.Errorf("row %d: expected all bands absent for too-short series, got %+v", i, r)
		}
	}
}

func TestBollingerPartialInLongerSeries(t *testing.T) {
	series := daySeries(1, 2, 3, 4, 5)
	rows := NewRows(series)
	cfg := BollingerConfig{Window: 3, StdDevMult: 2, SourceField: "close"}

	if err := ComputeBollingerBands(series, rows, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < cfg.Window-1; i++ {
		if types.Present(rows[i].BBMiddle) {
			t.Errorf("row %d: expected absent middle band before the window fills", i)
		}
	}

	// Window {1,2,3}: mean 2, population std dev sqrt(2/3).
	sd := math.Sqrt(2.0 / 3.0)
	if !almostEqual(rows[2].BBMiddle, 2) {
		t.Errorf("middle band = %v, want 2", rows[2].BBMiddle)
	}
	if !almostEqual(rows[2].BBUpper, 2+2*sd) {
		t.Errorf("upper band = %v, want %v", rows[2].BBUpper, 2+2*sd)
	}
	if !almostEqual(rows[2].BBLower, 2-2*sd) {
		t.Errorf("lower band = %v, want %v", rows[2].BBLower, 2-2*sd)
	}
	for i := cfg.Window - 1; i < len(rows); i++ {
		if !types.Present(rows[i].BBMiddle) || !types.Present(rows[i].BBUpper) || !types.Present(rows[i].BBLower) {
			t.Errorf("row %d: expected present bands once the window fills", i)
		}
	}
}

func TestBollingerBandOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + rng.Float64()*20
	}
	series := daySeries(closes...)
	rows := NewRows(series)

	if err := ComputeBollingerBands(series, rows, DefaultBollinger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if !types.Present(r.BBMiddle) {
			continue
		}
		if r.BBLower > r.BBMiddle || r.BBMiddle > r.BBUpper {
			t.Errorf("row %d: band ordering violated: lower=%v middle=%v upper=%v", i, r.BBLower, r.BBMiddle, r.BBUpper)
		}
	}
}

func TestBollingerPercentBAbsentWhenBandsFlat(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50
	}
	series := daySeries(closes...)
	rows := NewRows(series)

	if err := ComputeBollingerBands(series, rows, DefaultBollinger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := rows[len(rows)-1]
	if !types.Present(last.BBMiddle) {
		t.Fatal("expected middle band present")
	}
	if last.BBUpper != last.BBLower {
		t.Fatalf("expected degenerate bands, got upper=%v lower=%v", last.BBUpper, last.BBLower)
	}
	if types.Present(last.BBPercentB) {
		t.Errorf("expected %%B absent when upper == lower, got %v", last.BBPercentB)
	}
}

func TestBollingerUnknownSourceField(t *testing.T) {
	series := daySeries(1, 2, 3)
	rows := NewRows(series)
	cfg := BollingerConfig{Window: 2, StdDevMult: 2, SourceField: "vwap"}

	err := ComputeBollingerBands(series, rows, cfg)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestWilliamsRRange(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	series := make([]types.Candle, 50)
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := range series {
		low := 90 + rng.Float64()*10
		high := low + rng.Float64()*10
		series[i] = types.Candle{
			Date:  start.AddDate(0, 0, i),
			Open:  low + (high-low)/2,
			High:  high,
			Low:   low,
			Close: low + rng.Float64()*(high-low),
		}
	}
	rows := NewRows(series)

	if err := ComputeWilliamsR(series, rows, 14); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if !types.Present(r.WilliamsR) {
			continue
		}
		if r.WilliamsR < -100 || r.WilliamsR > 0 {
			t.Errorf("row %d: williams %%r out of range: %v", i, r.WilliamsR)
		}
	}
}

func TestWilliamsRKnownValue(t *testing.T) {
	series := []types.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 12, Low: 9, Close: 11},
		{High: 11, Low: 9, Close: 9},
	}
	rows := NewRows(series)

	if err := ComputeWilliamsR(series, rows, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// hh=12, ll=8, close=9 => (12-9)/(12-8)*-100 = -75.
	if !almostEqual(rows[2].WilliamsR, -75) {
		t.Errorf("williams %%r = %v, want -75", rows[2].WilliamsR)
	}
}

func TestWilliamsRFlatWindowAbsent(t *testing.T) {
	series := make([]types.Candle, 20)
	for i := range series {
		series[i] = types.Candle{High: 5, Low: 5, Close: 5}
	}
	rows := NewRows(series)

	if err := ComputeWilliamsR(series, rows, 14); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if types.Present(r.WilliamsR) {
			t.Errorf("row %d: expected absent williams %%r for flat window, got %v", i, r.WilliamsR)
		}
	}
}

func TestWilliamsRAllAbsentWhenSeriesTooShort(t *testing.T) {
	series := daySeries(1, 2, 3, 4, 5)
	rows := NewRows(series)

	if err := ComputeWilliamsR(series, rows, 14); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if types.Present(r.WilliamsR) {
			t.Errorf("row %d: expected absent williams %%r for too-short series", i)
		}
	}
}

func TestRollingSMA(t *testing.T) {
	series := daySeries(2, 4, 6, 8)
	sma := RollingSMA(series, 2)

	if types.Present(sma[0]) {
		t.Errorf("sma[0] = %v, want absent", sma[0])
	}
	want := []float64{3, 5, 7}
	for i, w := range want {
		if !almostEqual(sma[i+1], w) {
			t.Errorf("sma[%d] = %v, want %v", i+1, sma[i+1], w)
		}
	}

	short := RollingSMA(series, 10)
	for i, v := range short {
		if types.Present(v) {
			t.Errorf("short[%d] = %v, want absent", i, v)
		}
	}
}
