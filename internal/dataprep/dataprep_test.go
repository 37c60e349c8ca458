package dataprep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"kis-trading-bot/internal/types"
)

type fakeBroker struct {
	candles []types.RawCandle
	err     error

	gotSymbol string
	gotStart  string
	gotEnd    string
}

func (f *fakeBroker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeBroker) HistoricalOHLCV(ctx context.Context, symbol, startDate, endDate string) ([]types.RawCandle, error) {
	f.gotSymbol = symbol
	f.gotStart = startDate
	f.gotEnd = endDate
	return f.candles, f.err
}

func (f *fakeBroker) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	return types.OrderResult{}, errors.New("not implemented")
}

func (f *fakeBroker) AccountBalance(ctx context.Context) (types.PortfolioSnapshot, error) {
	return types.PortfolioSnapshot{}, errors.New("not implemented")
}

func raw(date, o, h, l, c, v string) types.RawCandle {
	return types.RawCandle{Date: date, Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestFetchAndPrepareSortsAscending(t *testing.T) {
	brk := &fakeBroker{candles: []types.RawCandle{
		raw("20240105", "10", "11", "9", "10.5", "100"),
		raw("20240103", "9", "10", "8", "9.5", "200"),
		raw("20240104", "9.5", "10.5", "9", "10", "150"),
	}}
	p := New(brk)

	series, err := p.FetchAndPrepare(context.Background(), "005930", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []types.Candle{
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 200},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Open: 9.5, High: 10.5, Low: 9, Close: 10, Volume: 150},
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
	}
	if diff := cmp.Diff(want, series); diff != "" {
		t.Errorf("prepared series mismatch (-want +got):\n%s", diff)
	}
	if brk.gotSymbol != "005930" {
		t.Errorf("symbol = %q, want 005930", brk.gotSymbol)
	}
}

func TestFetchAndPrepareRequestWindowIncludesBuffer(t *testing.T) {
	brk := &fakeBroker{}
	p := New(brk)
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	if _, err := p.FetchAndPrepare(context.Background(), "000660", 90); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if brk.gotEnd != "20240615" {
		t.Errorf("end date = %q, want 20240615", brk.gotEnd)
	}
	wantStart := fixed.AddDate(0, 0, -120).Format("20060102")
	if brk.gotStart != wantStart {
		t.Errorf("start date = %q, want %q", brk.gotStart, wantStart)
	}
}

func TestFetchAndPrepareDropsBadRows(t *testing.T) {
	brk := &fakeBroker{candles: []types.RawCandle{
		raw("20240103", "9", "10", "8", "9.5", "200"),
		raw("not-a-date", "9", "10", "8", "9.5", "200"),
		raw("20240104", "9.5", "x", "9", "10", "150"),
		raw("20240105", "10", "11", "9", "10.5", ""),
	}}
	p := New(brk)

	series, err := p.FetchAndPrepare(context.Background(), "005930", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2", len(series))
	}
	// Empty volume is tolerated and coerced to zero.
	if series[1].Volume != 0 {
		t.Errorf("volume = %d, want 0", series[1].Volume)
	}
}

func TestFetchAndPrepareDedupesKeepingLast(t *testing.T) {
	brk := &fakeBroker{candles: []types.RawCandle{
		raw("20240103", "9", "10", "8", "9.5", "200"),
		raw("20240103", "9", "10", "8", "9.9", "300"),
	}}
	p := New(brk)

	series, err := p.FetchAndPrepare(context.Background(), "005930", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("len(series) = %d, want 1", len(series))
	}
	if series[0].Close != 9.9 || series[0].Volume != 300 {
		t.Errorf("kept candle = %+v, want the later duplicate", series[0])
	}
}

func TestFetchAndPrepareEmptyPayload(t *testing.T) {
	p := New(&fakeBroker{})

	series, err := p.FetchAndPrepare(context.Background(), "005930", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("len(series) = %d, want 0", len(series))
	}
}

func TestFetchAndPreparePropagatesTransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	p := New(&fakeBroker{err: wantErr})

	_, err := p.FetchAndPrepare(context.Background(), "005930", 90)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}
