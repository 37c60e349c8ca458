package mock

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"kis-trading-bot/internal/types"
)

func orderReq() types.OrderRequest {
	return types.OrderRequest{Symbol: "005930", Side: types.OrderBuy, Quantity: 10}
}

func TestHistoricalOHLCVDeterministic(t *testing.T) {
	b := New()
	ctx := context.Background()

	first, err := b.HistoricalOHLCV(ctx, "005930", "20240101", "20240301")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := b.HistoricalOHLCV(ctx, "005930", "20240101", "20240301")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same query differed (-first +second):\n%s", diff)
	}
	if len(first) == 0 {
		t.Fatal("expected candles in range")
	}
}

func TestHistoricalOHLCVStableAcrossRanges(t *testing.T) {
	b := New()
	ctx := context.Background()

	wide, err := b.HistoricalOHLCV(ctx, "005930", "20240101", "20240301")
	if err != nil {
		t.Fatalf("wide fetch: %v", err)
	}
	narrow, err := b.HistoricalOHLCV(ctx, "005930", "20240201", "20240301")
	if err != nil {
		t.Fatalf("narrow fetch: %v", err)
	}
	// The narrow window must be a suffix of the wide one.
	if len(narrow) == 0 || len(narrow) >= len(wide) {
		t.Fatalf("unexpected lengths: wide=%d narrow=%d", len(wide), len(narrow))
	}
	if diff := cmp.Diff(wide[len(wide)-len(narrow):], narrow); diff != "" {
		t.Errorf("overlapping dates differed (-wide +narrow):\n%s", diff)
	}
}

func TestSymbolsDiffer(t *testing.T) {
	b := New()
	ctx := context.Background()

	a, err := b.HistoricalOHLCV(ctx, "005930", "20240101", "20240131")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	c, err := b.HistoricalOHLCV(ctx, "000660", "20240101", "20240131")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if a[0].Close == c[0].Close {
		t.Error("different symbols produced identical prices")
	}
}

func TestPlaceOrderAlwaysFills(t *testing.T) {
	b := New()
	res, err := b.PlaceOrder(context.Background(), orderReq())
	if err != nil || !res.Success || res.OrderID == "" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	res2, _ := b.PlaceOrder(context.Background(), orderReq())
	if res.OrderID == res2.OrderID {
		t.Error("order ids should be unique")
	}
}
