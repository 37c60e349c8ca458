// Package kite adapts the Zerodha Kite Connect API to the broker interface,
// for running the bot against NSE symbols instead of KRX.
package kite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

const dateLayout = "20060102"

type Params struct {
	APIKey      string
	AccessToken string
	// Exchange defaults to NSE.
	Exchange string
	// InstrumentTokens maps trading symbols to Kite instrument tokens; the
	// historical data endpoint is keyed by token, not symbol.
	InstrumentTokens map[string]int
}

type Broker struct {
	kc *kiteconnect.Client
	p  Params
}

var _ interfaces.Broker = (*Broker)(nil)

func New(p Params) (*Broker, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, fmt.Errorf("kite: api key and access token are required")
	}
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &Broker{kc: kc, p: p}, nil
}

func (b *Broker) instrument(symbol string) string {
	return b.p.Exchange + ":" + symbol
}

func (b *Broker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	key := b.instrument(symbol)
	quotes, err := b.kc.GetLTP(key)
	if err != nil {
		return 0, fmt.Errorf("kite: fetch LTP for %s: %w", symbol, err)
	}
	q, ok := quotes[key]
	if !ok {
		return 0, fmt.Errorf("kite: no quote returned for %s", key)
	}
	return q.LastPrice, nil
}

// HistoricalOHLCV returns daily candles in the brokerage wire format the
// data preparer expects, dates rendered as YYYYMMDD.
func (b *Broker) HistoricalOHLCV(ctx context.Context, symbol, startDate, endDate string) ([]types.RawCandle, error) {
	token, ok := b.p.InstrumentTokens[symbol]
	if !ok {
		return nil, fmt.Errorf("kite: no instrument token configured for %s", symbol)
	}
	from, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("kite: parse start date %q: %w", startDate, err)
	}
	to, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("kite: parse end date %q: %w", endDate, err)
	}

	data, err := b.kc.GetHistoricalData(token, "day", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("kite: fetch historical data for %s: %w", symbol, err)
	}

	candles := make([]types.RawCandle, 0, len(data))
	for _, d := range data {
		candles = append(candles, types.RawCandle{
			Date:   d.Date.Format(dateLayout),
			Open:   strconv.FormatFloat(d.Open, 'f', -1, 64),
			High:   strconv.FormatFloat(d.High, 'f', -1, 64),
			Low:    strconv.FormatFloat(d.Low, 'f', -1, 64),
			Close:  strconv.FormatFloat(d.Close, 'f', -1, 64),
			Volume: strconv.Itoa(d.Volume),
		})
	}
	logger.Debug(ctx, "Historical data fetched", "symbol", symbol, "rows", len(candles))
	return candles, nil
}

func (b *Broker) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	transactionType := kiteconnect.TransactionTypeBuy
	if req.Side == types.OrderSell {
		transactionType = kiteconnect.TransactionTypeSell
	}
	orderType := kiteconnect.OrderTypeMarket
	price := 0.0
	if req.Condition == types.ConditionLimit {
		orderType = kiteconnect.OrderTypeLimit
		price = req.Price
	}

	resp, err := b.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        b.p.Exchange,
		Tradingsymbol:   req.Symbol,
		TransactionType: transactionType,
		OrderType:       orderType,
		Quantity:        int(req.Quantity),
		Price:           price,
		Product:         kiteconnect.ProductCNC,
		Validity:        kiteconnect.ValidityDay,
	})
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("kite: place order for %s: %w", req.Symbol, err)
	}
	return types.OrderResult{
		Success: true,
		OrderID: resp.OrderID,
		Details: map[string]any{"exchange": b.p.Exchange},
	}, nil
}

func (b *Broker) AccountBalance(ctx context.Context) (types.PortfolioSnapshot, error) {
	holdings, err := b.kc.GetHoldings()
	if err != nil {
		return types.PortfolioSnapshot{}, fmt.Errorf("kite: fetch holdings: %w", err)
	}

	snap := types.PortfolioSnapshot{
		Holdings:  make([]types.Holding, 0, len(holdings)),
		Timestamp: time.Now(),
	}
	for _, h := range holdings {
		if h.Quantity == 0 {
			continue
		}
		qty := int64(h.Quantity)
		evalAmount := h.LastPrice * float64(h.Quantity)
		cost := h.AveragePrice * float64(h.Quantity)
		ratio := 0.0
		if cost != 0 {
			ratio = h.PnL / cost * 100
		}
		snap.Holdings = append(snap.Holdings, types.Holding{
			Symbol:           h.Tradingsymbol,
			Name:             h.Tradingsymbol,
			Quantity:         qty,
			AvgPurchasePrice: h.AveragePrice,
			CurrentPrice:     h.LastPrice,
			EvalAmount:       evalAmount,
			ProfitLossAmount: h.PnL,
			ProfitLossRatio:  ratio,
		})
	}

	margins, err := b.kc.GetUserMargins()
	if err != nil {
		logger.Warn(ctx, "Failed to fetch margins, summary omitted", "error", err)
		return snap, nil
	}
	totalEval := 0.0
	for _, h := range snap.Holdings {
		totalEval += h.EvalAmount
	}
	snap.Summary = &types.AccountSummary{
		TotalCash:       margins.Equity.Available.Cash,
		TotalEvalAmount: totalEval + margins.Equity.Available.Cash,
		NetAssetValue:   margins.Equity.Net + totalEval,
	}
	return snap, nil
}
