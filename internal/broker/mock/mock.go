// Package mock is an offline broker for development and demos. Candles are
// a deterministic random walk seeded by symbol, so repeated runs see the
// same market.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

const dateLayout = "20060102"

type Broker struct {
	orderSeq atomic.Int64
}

var _ interfaces.Broker = (*Broker)(nil)

func New() *Broker {
	return &Broker{}
}

func seedFor(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}

// walk generates the synthetic daily closes for a symbol from a fixed
// origin, so any date range carves a consistent slice of the same series.
func walk(symbol string, days int) []float64 {
	rng := rand.New(rand.NewSource(seedFor(symbol)))
	price := 10000 + rng.Float64()*90000
	out := make([]float64, days)
	for i := range out {
		price *= 1 + (rng.Float64()-0.5)*0.04
		out[i] = price
	}
	return out
}

var walkOrigin = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func (b *Broker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	days := int(time.Since(walkOrigin).Hours()/24) + 1
	closes := walk(symbol, days)
	price := closes[len(closes)-1]
	logger.Debug(ctx, "Mock price served", "symbol", symbol, "price", price)
	return price, nil
}

func (b *Broker) HistoricalOHLCV(ctx context.Context, symbol, startDate, endDate string) ([]types.RawCandle, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("mock: parse start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("mock: parse end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("mock: end date %s before start date %s", endDate, startDate)
	}

	days := int(end.Sub(walkOrigin).Hours()/24) + 1
	closes := walk(symbol, days)

	candles := make([]types.RawCandle, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Before(walkOrigin) {
			continue
		}
		// Weekends are market holidays in the synthetic exchange too.
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		i := int(d.Sub(walkOrigin).Hours() / 24)
		// Per-day seed keeps a date's candle identical across range queries.
		rng := rand.New(rand.NewSource(seedFor(symbol) ^ int64(i+1)))
		c := closes[i]
		spread := c * 0.01
		high := c + rng.Float64()*spread
		low := c - rng.Float64()*spread
		volume := 100000 + rng.Int63n(900000)
		candles = append(candles, types.RawCandle{
			Date:   d.Format(dateLayout),
			Open:   formatPrice((high + low) / 2),
			High:   formatPrice(high),
			Low:    formatPrice(low),
			Close:  formatPrice(c),
			Volume: strconv.FormatInt(volume, 10),
		})
	}
	return candles, nil
}

func (b *Broker) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	id := fmt.Sprintf("MOCK-%d", b.orderSeq.Add(1))
	logger.Info(ctx, "Mock order filled",
		"symbol", req.Symbol, "side", string(req.Side), "qty", req.Quantity, "order_id", id)
	return types.OrderResult{
		Success: true,
		OrderID: id,
		Details: map[string]any{"simulated": true},
	}, nil
}

func (b *Broker) AccountBalance(ctx context.Context) (types.PortfolioSnapshot, error) {
	return types.PortfolioSnapshot{
		Holdings: []types.Holding{},
		Summary: &types.AccountSummary{
			TotalCash:       10000000,
			TotalEvalAmount: 10000000,
			NetAssetValue:   10000000,
		},
		Timestamp: time.Now(),
	}, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
