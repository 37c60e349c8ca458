package types

import (
	"math"
	"time"
)

// Candle is one daily OHLCV record after normalization. A series of candles
// is always ordered ascending by date with no duplicate dates.
type Candle struct {
	Date                   time.Time
	Open, High, Low, Close float64
	Volume                 int64
}

// RawCandle is a single historical row as returned by a brokerage, before
// normalization. All fields are strings in the brokerage's own format
// (dates are YYYYMMDD); the data preparer parses and coerces them.
type RawCandle struct {
	Date   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// IndicatorRow holds the derived indicator values for one candle. Fields are
// NaN when there is not enough history at that position to compute them;
// use Present to distinguish absent from zero.
type IndicatorRow struct {
	Close       float64
	BBMiddle    float64
	BBUpper     float64
	BBLower     float64
	BBPercentB  float64
	BBBandwidth float64
	WilliamsR   float64
}

// Present reports whether an indicator value was computable.
func Present(v float64) bool { return !math.IsNaN(v) }

// Signal is the categorical verdict a strategy emits for one symbol.
type Signal string

const (
	SignalBuy         Signal = "BUY"
	SignalSell        Signal = "SELL"
	SignalHold        Signal = "HOLD"
	SignalError       Signal = "ERROR"
	SignalNoData      Signal = "NO_DATA"
	SignalNoIndicator Signal = "NO_INDICATOR"
)

// Actionable reports whether the signal calls for an order.
func (s Signal) Actionable() bool { return s == SignalBuy || s == SignalSell }

// SignalResult is the sole output contract of a strategy and of the engine's
// analysis entry points. Its shape is stable regardless of which strategy
// produced it. Pointer fields are nil when the value is absent.
type SignalResult struct {
	Symbol             string              `json:"symbol"`
	Timestamp          time.Time           `json:"timestamp"`
	PriceAtSignal      *float64            `json:"price_at_signal,omitempty"`
	CurrentMarketPrice *float64            `json:"current_market_price,omitempty"`
	Signal             Signal              `json:"signal"`
	Reason             string              `json:"reason"`
	Indicators         map[string]*float64 `json:"indicators,omitempty"`
}

// Float returns a pointer to v, for populating optional result fields.
func Float(v float64) *float64 { return &v }

// FloatOrNil converts a NaN-sentinel value to an optional one.
func FloatOrNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// Order condition codes, as used by the KIS order API.
const (
	ConditionLimit  = "00"
	ConditionMarket = "03"
)

// OrderRequest describes a manual buy/sell order. Price 0 together with the
// market condition code means a market order.
type OrderRequest struct {
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Quantity  int64     `json:"quantity"`
	Price     float64   `json:"price"`
	Condition string    `json:"condition"`
}

// OrderResult reports the brokerage's answer to an order. Error is set only
// on failure; Details is an opaque passthrough of the raw response.
type OrderResult struct {
	Success bool           `json:"success"`
	OrderID string         `json:"order_id,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Holding is one position in the account.
type Holding struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name,omitempty"`
	Quantity         int64   `json:"quantity"`
	AvgPurchasePrice float64 `json:"average_purchase_price"`
	CurrentPrice     float64 `json:"current_price,omitempty"`
	EvalAmount       float64 `json:"eval_amount,omitempty"`
	ProfitLossAmount float64 `json:"profit_loss_amount,omitempty"`
	ProfitLossRatio  float64 `json:"profit_loss_ratio,omitempty"`
}

// AccountSummary aggregates the cash and valuation figures of the account.
type AccountSummary struct {
	TotalCash       float64 `json:"total_cash_balance"`
	TotalEvalAmount float64 `json:"eval_amount_total"`
	NetAssetValue   float64 `json:"net_asset_value"`
}

// PortfolioSnapshot is a fresh, uncached view of account holdings.
type PortfolioSnapshot struct {
	Holdings  []Holding       `json:"holdings"`
	Summary   *AccountSummary `json:"summary,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewsArticle is a scraped headline with optional body text.
type NewsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content,omitempty"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at,omitempty"`
	Symbol      string `json:"symbol"`
}

// NewsSentiment is an aggregate sentiment reading over recent headlines.
type NewsSentiment struct {
	Symbol           string  `json:"symbol"`
	OverallSentiment string  `json:"overall_sentiment"`
	OverallScore     float64 `json:"overall_score"`
	ArticleCount     int     `json:"article_count"`
	Summary          string  `json:"summary,omitempty"`
	Timestamp        int64   `json:"timestamp"`
}
