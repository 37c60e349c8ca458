// Package dataprep turns raw brokerage chart payloads into clean candle
// series ready for indicator computation.
package dataprep

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

// fetchBufferDays widens the request window so weekends and market holidays
// still leave enough trading days for the indicator lookback.
const fetchBufferDays = 30

const dateLayout = "20060102"

// Preparer fetches historical OHLCV data through a broker and normalizes it.
type Preparer struct {
	broker interfaces.Broker
	now    func() time.Time
}

// New returns a Preparer backed by the given broker.
func New(broker interfaces.Broker) *Preparer {
	return &Preparer{broker: broker, now: time.Now}
}

// FetchAndPrepare retrieves roughly lookbackDays calendar days of candles for
// symbol and returns them cleaned: unparseable rows dropped, duplicates on
// the same date collapsed keeping the newest row, sorted ascending by date.
// An empty payload yields an empty series, not an error; only transport
// failures are returned as errors.
func (p *Preparer) FetchAndPrepare(ctx context.Context, symbol string, lookbackDays int) ([]types.Candle, error) {
	end := p.now()
	start := end.AddDate(0, 0, -(lookbackDays + fetchBufferDays))

	raw, err := p.broker.HistoricalOHLCV(ctx, symbol, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("fetch historical data for %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		logger.Warn(ctx, "No historical data returned", "symbol", symbol)
		return []types.Candle{}, nil
	}

	series := make([]types.Candle, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		c, err := parseCandle(r)
		if err != nil {
			dropped++
			logger.Warn(ctx, "Dropping unparseable candle", "symbol", symbol, "date", r.Date, "error", err)
			continue
		}
		series = append(series, c)
	}
	if dropped > 0 {
		logger.Info(ctx, "Dropped malformed candles", "symbol", symbol, "dropped", dropped, "kept", len(series))
	}

	series = dedupeKeepLast(series)
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

func parseCandle(r types.RawCandle) (types.Candle, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse date %q: %w", r.Date, err)
	}
	open, err := strconv.ParseFloat(r.Open, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse open %q: %w", r.Open, err)
	}
	high, err := strconv.ParseFloat(r.High, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse high %q: %w", r.High, err)
	}
	low, err := strconv.ParseFloat(r.Low, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse low %q: %w", r.Low, err)
	}
	closePx, err := strconv.ParseFloat(r.Close, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse close %q: %w", r.Close, err)
	}
	volume := int64(0)
	if r.Volume != "" {
		volume, err = strconv.ParseInt(r.Volume, 10, 64)
		if err != nil {
			return types.Candle{}, fmt.Errorf("parse volume %q: %w", r.Volume, err)
		}
	}
	return types.Candle{Date: date, Open: open, High: high, Low: low, Close: closePx, Volume: volume}, nil
}

// dedupeKeepLast collapses candles sharing a date, keeping the one that
// appeared last in the payload.
func dedupeKeepLast(series []types.Candle) []types.Candle {
	byDate := make(map[time.Time]int, len(series))
	out := series[:0]
	for _, c := range series {
		if idx, ok := byDate[c.Date]; ok {
			out[idx] = c
			continue
		}
		byDate[c.Date] = len(out)
		out = append(out, c)
	}
	return out
}
