package strategy

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"kis-trading-bot/internal/types"
)

// flatSeries returns n candles closing at c with a one-point spread around it.
func flatSeries(n int, c float64) []types.Candle {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	series := make([]types.Candle, n)
	for i := range series {
		series[i] = types.Candle{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func mustBollingerWilliams(t *testing.T) *BollingerWilliams {
	t.Helper()
	s, err := NewBollingerWilliams(DefaultBollingerWilliamsParams())
	if err != nil {
		t.Fatalf("NewBollingerWilliams: %v", err)
	}
	return s
}

func TestBollingerWilliamsBuyOnOversoldBreak(t *testing.T) {
	s := mustBollingerWilliams(t)
	series := flatSeries(30, 100)
	last := &series[len(series)-1]
	last.Close, last.High, last.Low = 80, 81, 79

	res := s.Analyze(context.Background(), "005930", series, 80.5)
	if res.Signal != types.SignalBuy {
		t.Fatalf("signal = %s (%s), want BUY", res.Signal, res.Reason)
	}
	if res.PriceAtSignal == nil || *res.PriceAtSignal != 80 {
		t.Errorf("price_at_signal = %v, want 80", res.PriceAtSignal)
	}
	if res.CurrentMarketPrice == nil || *res.CurrentMarketPrice != 80.5 {
		t.Errorf("current_market_price = %v, want 80.5", res.CurrentMarketPrice)
	}
	if !res.Timestamp.Equal(last.Date) {
		t.Errorf("timestamp = %v, want last candle date %v", res.Timestamp, last.Date)
	}
	for _, key := range []string{"bollinger_lower", "bollinger_middle", "bollinger_upper", "williams_r"} {
		if res.Indicators[key] == nil {
			t.Errorf("indicator %q missing from snapshot", key)
		}
	}
}

func TestBollingerWilliamsSellOnOverboughtBreak(t *testing.T) {
	s := mustBollingerWilliams(t)
	series := flatSeries(30, 100)
	last := &series[len(series)-1]
	last.Close, last.High, last.Low = 120, 121, 119

	res := s.Analyze(context.Background(), "005930", series, 120)
	if res.Signal != types.SignalSell {
		t.Fatalf("signal = %s (%s), want SELL", res.Signal, res.Reason)
	}
}

func TestBollingerWilliamsHoldInsideBands(t *testing.T) {
	s := mustBollingerWilliams(t)
	series := flatSeries(30, 100)

	res := s.Analyze(context.Background(), "005930", series, 100)
	if res.Signal != types.SignalHold {
		t.Fatalf("signal = %s (%s), want HOLD", res.Signal, res.Reason)
	}
}

func TestBollingerWilliamsNoDataOnShortSeries(t *testing.T) {
	s := mustBollingerWilliams(t)

	res := s.Analyze(context.Background(), "005930", flatSeries(10, 100), 100)
	if res.Signal != types.SignalNoData {
		t.Fatalf("signal = %s, want NO_DATA", res.Signal)
	}
	res = s.Analyze(context.Background(), "005930", nil, 100)
	if res.Signal != types.SignalNoData {
		t.Fatalf("signal for empty series = %s, want NO_DATA", res.Signal)
	}
}

func TestBollingerWilliamsNoIndicatorOnFlatRange(t *testing.T) {
	s := mustBollingerWilliams(t)
	// High == low == close for every candle, so Williams %R is undefined.
	series := flatSeries(30, 100)
	for i := range series {
		series[i].High, series[i].Low = 100, 100
	}

	res := s.Analyze(context.Background(), "005930", series, 100)
	if res.Signal != types.SignalNoIndicator {
		t.Fatalf("signal = %s (%s), want NO_INDICATOR", res.Signal, res.Reason)
	}
	if res.Indicators["williams_r"] != nil {
		t.Errorf("williams_r = %v, want nil in snapshot", res.Indicators["williams_r"])
	}
	if res.Indicators["bollinger_middle"] == nil {
		t.Error("bollinger_middle should still be present in snapshot")
	}
}

func TestBollingerWilliamsRejectsUnknownSourceField(t *testing.T) {
	p := DefaultBollingerWilliamsParams()
	p.SourceField = "vwap"
	if _, err := NewBollingerWilliams(p); err == nil {
		t.Fatal("expected constructor error for unknown source field")
	}
}

func TestBollingerWilliamsBuySellExclusive(t *testing.T) {
	s := mustBollingerWilliams(t)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		lower := 50 + rng.Float64()*50
		upper := lower + rng.Float64()*50
		close := 25 + rng.Float64()*150
		wr := -rng.Float64() * 100

		signal, _ := s.decide(close, lower, upper, wr)
		if signal == types.SignalBuy && (close >= lower || wr >= s.p.WROversold) {
			t.Fatalf("spurious BUY: close=%v lower=%v wr=%v", close, lower, wr)
		}
		if signal == types.SignalSell && (close <= upper || wr <= s.p.WROverbought) {
			t.Fatalf("spurious SELL: close=%v upper=%v wr=%v", close, upper, wr)
		}
	}
}

func TestMACrossoverGoldenCross(t *testing.T) {
	s, err := NewMACrossover(MACrossoverParams{FastWindow: 2, SlowWindow: 3})
	if err != nil {
		t.Fatalf("NewMACrossover: %v", err)
	}
	series := flatSeries(4, 10)
	series[3].Close = 30

	res := s.Analyze(context.Background(), "005930", series, 30)
	if res.Signal != types.SignalBuy {
		t.Fatalf("signal = %s (%s), want BUY", res.Signal, res.Reason)
	}
}

func TestMACrossoverDeathCross(t *testing.T) {
	s, err := NewMACrossover(MACrossoverParams{FastWindow: 2, SlowWindow: 3})
	if err != nil {
		t.Fatalf("NewMACrossover: %v", err)
	}
	series := flatSeries(4, 10)
	series[3].Close = 1

	res := s.Analyze(context.Background(), "005930", series, 1)
	if res.Signal != types.SignalSell {
		t.Fatalf("signal = %s (%s), want SELL", res.Signal, res.Reason)
	}
}

func TestMACrossoverHoldWithoutCross(t *testing.T) {
	s, err := NewMACrossover(MACrossoverParams{FastWindow: 2, SlowWindow: 3})
	if err != nil {
		t.Fatalf("NewMACrossover: %v", err)
	}

	res := s.Analyze(context.Background(), "005930", flatSeries(10, 10), 10)
	if res.Signal != types.SignalHold {
		t.Fatalf("signal = %s (%s), want HOLD", res.Signal, res.Reason)
	}
}

func TestMACrossoverNoDataOnShortSeries(t *testing.T) {
	s, err := NewMACrossover(MACrossoverParams{FastWindow: 5, SlowWindow: 20})
	if err != nil {
		t.Fatalf("NewMACrossover: %v", err)
	}

	res := s.Analyze(context.Background(), "005930", flatSeries(20, 10), 10)
	if res.Signal != types.SignalNoData {
		t.Fatalf("signal = %s, want NO_DATA", res.Signal)
	}
}

func TestMACrossoverRejectsInvertedWindows(t *testing.T) {
	if _, err := NewMACrossover(MACrossoverParams{FastWindow: 20, SlowWindow: 5}); err == nil {
		t.Fatal("expected constructor error when fast >= slow")
	}
}
