// Package kis implements the broker interface against the Korea Investment
// & Securities Open API (domestic stock endpoints).
package kis

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"kis-trading-bot/internal/api"
	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

// Transaction IDs for the endpoints the bot uses.
const (
	trIDPrice      = "FHKST01010100"
	trIDDailyChart = "FHKST03010100"
	trIDOrderBuy   = "TTTC0802U"
	trIDOrderSell  = "TTTC0801U"
	trIDBalance    = "TTTC8434R"
)

type Broker struct {
	c *client
}

var _ interfaces.Broker = (*Broker)(nil)

// New validates the parameters and returns a KIS-backed broker. No network
// call happens until the first request needs a token.
func New(p Params) (*Broker, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Broker{c: newClient(p)}, nil
}

// CurrentPrice returns the latest traded price for a KRX symbol.
func (b *Broker) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	headers, err := b.c.authHeaders(ctx, trIDPrice)
	if err != nil {
		return 0, err
	}
	req := api.NewRequest(http.MethodGet, "/uapi/domestic-stock/v1/quotations/inquire-price").
		WithContext(ctx).
		WithQuery("FID_COND_MRKT_DIV_CODE", "J").
		WithQuery("FID_INPUT_ISCD", symbol)
	for k, v := range headers {
		req.WithHeader(k, v)
	}

	resp, err := b.c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("kis: fetch price for %s: %w", symbol, err)
	}
	var out priceResponse
	if err := resp.ParseJSON(&out); err != nil {
		return 0, fmt.Errorf("kis: decode price response: %w", err)
	}
	if err := checkEnvelope(out.envelope); err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(out.Output.StckPrpr, 64)
	if err != nil {
		return 0, fmt.Errorf("kis: parse price %q: %w", out.Output.StckPrpr, err)
	}
	return price, nil
}

// HistoricalOHLCV returns daily candles between startDate and endDate, both
// in YYYYMMDD form. Rows come back in the API's own order and format; the
// data preparer owns cleaning and sorting.
func (b *Broker) HistoricalOHLCV(ctx context.Context, symbol, startDate, endDate string) ([]types.RawCandle, error) {
	headers, err := b.c.authHeaders(ctx, trIDDailyChart)
	if err != nil {
		return nil, err
	}
	req := api.NewRequest(http.MethodGet, "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice").
		WithContext(ctx).
		WithQuery("FID_COND_MRKT_DIV_CODE", "J").
		WithQuery("FID_INPUT_ISCD", symbol).
		WithQuery("FID_INPUT_DATE_1", startDate).
		WithQuery("FID_INPUT_DATE_2", endDate).
		WithQuery("FID_PERIOD_DIV_CODE", "D").
		WithQuery("FID_ORG_ADJ_PRC", "0")
	for k, v := range headers {
		req.WithHeader(k, v)
	}

	resp, err := b.c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kis: fetch daily chart for %s: %w", symbol, err)
	}
	var out dailyChartResponse
	if err := resp.ParseJSON(&out); err != nil {
		return nil, fmt.Errorf("kis: decode daily chart response: %w", err)
	}
	if err := checkEnvelope(out.envelope); err != nil {
		return nil, err
	}

	candles := make([]types.RawCandle, 0, len(out.Output2))
	for _, row := range out.Output2 {
		if row.StckBsopDate == "" {
			continue
		}
		candles = append(candles, types.RawCandle{
			Date:   row.StckBsopDate,
			Open:   row.StckOprc,
			High:   row.StckHgpr,
			Low:    row.StckLwpr,
			Close:  row.StckClpr,
			Volume: row.AcmlVol,
		})
	}
	logger.Debug(ctx, "Daily chart fetched", "symbol", symbol, "rows", len(candles))
	return candles, nil
}

// PlaceOrder submits a cash order. A rejected order comes back as an error;
// the engine folds it into an OrderResult.
func (b *Broker) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	trID := trIDOrderBuy
	if req.Side == types.OrderSell {
		trID = trIDOrderSell
	}
	headers, err := b.c.authHeaders(ctx, b.c.tradingTrID(trID))
	if err != nil {
		return types.OrderResult{}, err
	}

	condition := req.Condition
	if condition == "" {
		condition = types.ConditionMarket
	}
	price := req.Price
	if condition == types.ConditionMarket {
		price = 0
	}
	body := orderRequestBody{
		CANO:       b.c.params.AccountNo,
		AcntPrdtCd: b.c.params.ProductCode,
		PDNO:       req.Symbol,
		OrdDvsn:    condition,
		OrdQty:     strconv.FormatInt(req.Quantity, 10),
		OrdUnpr:    strconv.FormatFloat(price, 'f', -1, 64),
	}

	resp, err := b.c.http.POST(ctx, "/uapi/domestic-stock/v1/trading/order-cash", body, headers)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("kis: place order for %s: %w", req.Symbol, err)
	}
	var out orderResponse
	if err := resp.ParseJSON(&out); err != nil {
		return types.OrderResult{}, fmt.Errorf("kis: decode order response: %w", err)
	}
	if err := checkEnvelope(out.envelope); err != nil {
		return types.OrderResult{}, err
	}

	return types.OrderResult{
		Success: true,
		OrderID: out.Output.Odno,
		Details: map[string]any{
			"order_branch": out.Output.KrxFwdgOrdOrgno,
			"order_time":   out.Output.OrdTmd,
			"message":      out.Msg1,
		},
	}, nil
}

// AccountBalance returns current holdings and the account summary.
func (b *Broker) AccountBalance(ctx context.Context) (types.PortfolioSnapshot, error) {
	headers, err := b.c.authHeaders(ctx, b.c.tradingTrID(trIDBalance))
	if err != nil {
		return types.PortfolioSnapshot{}, err
	}
	req := api.NewRequest(http.MethodGet, "/uapi/domestic-stock/v1/trading/inquire-balance").
		WithContext(ctx).
		WithQuery("CANO", b.c.params.AccountNo).
		WithQuery("ACNT_PRDT_CD", b.c.params.ProductCode).
		WithQuery("AFHR_FLPR_YN", "N").
		WithQuery("OFL_YN", "").
		WithQuery("INQR_DVSN", "02").
		WithQuery("UNPR_DVSN", "01").
		WithQuery("FUND_STTL_ICLD_YN", "N").
		WithQuery("FNCG_AMT_AUTO_RDPT_YN", "N").
		WithQuery("PRCS_DVSN", "01").
		WithQuery("CTX_AREA_FK100", "").
		WithQuery("CTX_AREA_NK100", "")
	for k, v := range headers {
		req.WithHeader(k, v)
	}

	resp, err := b.c.http.Do(req)
	if err != nil {
		return types.PortfolioSnapshot{}, fmt.Errorf("kis: fetch balance: %w", err)
	}
	var out balanceResponse
	if err := resp.ParseJSON(&out); err != nil {
		return types.PortfolioSnapshot{}, fmt.Errorf("kis: decode balance response: %w", err)
	}
	if err := checkEnvelope(out.envelope); err != nil {
		return types.PortfolioSnapshot{}, err
	}

	snap := types.PortfolioSnapshot{
		Holdings:  make([]types.Holding, 0, len(out.Output1)),
		Timestamp: time.Now(),
	}
	for _, h := range out.Output1 {
		qty := parseInt(h.HldgQty)
		if qty == 0 {
			continue
		}
		snap.Holdings = append(snap.Holdings, types.Holding{
			Symbol:           h.Pdno,
			Name:             h.PrdtName,
			Quantity:         qty,
			AvgPurchasePrice: parseFloat(h.PchsAvgPric),
			CurrentPrice:     parseFloat(h.Prpr),
			EvalAmount:       parseFloat(h.EvluAmt),
			ProfitLossAmount: parseFloat(h.EvluPflsAmt),
			ProfitLossRatio:  parseFloat(h.EvluPflsRt),
		})
	}
	if len(out.Output2) > 0 {
		s := out.Output2[0]
		snap.Summary = &types.AccountSummary{
			TotalCash:       parseFloat(s.DncaTotAmt),
			TotalEvalAmount: parseFloat(s.TotEvluAmt),
			NetAssetValue:   parseFloat(s.NassAmt),
		}
	}
	return snap, nil
}

// parseFloat tolerates the empty strings KIS pads numeric fields with.
func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
