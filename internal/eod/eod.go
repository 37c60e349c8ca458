// Package eod turns a day's order log into a per-symbol CSV summary with
// realized P&L. The summary is written next to the trade logs under
// TRADER_LOG_DIR/eod/.
package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"kis-trading-bot/internal/tradelog"
)

// Summarizer generates end-of-day trade summaries.
type Summarizer interface {
	// SummarizeDay writes the CSV summary for the given date and returns its
	// path. A day with no filled orders returns ("", nil).
	SummarizeDay(t time.Time) (csvPath string, err error)

	// SummarizeToday summarizes the current KST trading day.
	SummarizeToday() (csvPath string, err error)

	// ShouldRunNow reports whether the market has closed for the current KST
	// day and no summary file exists yet.
	ShouldRunNow() (shouldRun bool, csvPath string)
}

var kst = time.FixedZone("KST", 9*3600)

// aggRow accumulates fills for one symbol over the day.
type aggRow struct {
	Symbol      string
	BuyQty      int64
	BuyValue    float64
	SellQty     int64
	SellValue   float64
	RealizedPnL float64
}

type summarizer struct{}

func NewSummarizer() Summarizer { return &summarizer{} }

var defaultSummarizer Summarizer = &summarizer{}

// SetDefaultSummarizer replaces the package-level summarizer, typically with
// an observability-wrapped one.
func SetDefaultSummarizer(s Summarizer) { defaultSummarizer = s }

func SummarizeDay(t time.Time) (string, error) { return defaultSummarizer.SummarizeDay(t) }
func SummarizeToday() (string, error)          { return defaultSummarizer.SummarizeToday() }
func ShouldRunNow() (bool, string)             { return defaultSummarizer.ShouldRunNow() }

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func kstNow() time.Time { return time.Now().In(kst) }

func ordersFile(t time.Time) string {
	return filepath.Join(logDir(), t.In(kst).Format("2006-01-02")+".txt")
}

func csvPath(t time.Time) string {
	return filepath.Join(logDir(), "eod", t.In(kst).Format("2006-01-02")+".csv")
}

// marketClose is the KRX regular session close plus a settle-down buffer.
func marketClose(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 15, 40, 0, 0, t.Location())
}

func (s *summarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := ordersFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry tradelog.OrderEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			continue
		}
		// Rejected orders are in the log for the audit trail but move no
		// shares.
		if !entry.Success {
			continue
		}
		row := aggs[entry.Symbol]
		if row == nil {
			row = &aggRow{Symbol: entry.Symbol}
			aggs[entry.Symbol] = row
		}
		switch entry.Side {
		case "BUY":
			row.BuyQty += entry.Qty
			row.BuyValue += float64(entry.Qty) * entry.Price
		case "SELL":
			row.SellQty += entry.Qty
			row.SellValue += float64(entry.Qty) * entry.Price
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	headers := []string{"symbol", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "realized_pnl", "gross_buy_value", "gross_sell_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var totalBuy, totalSell, totalPnL float64
	for _, k := range keys {
		r := aggs[k]
		var buyAvg, sellAvg float64
		if r.BuyQty > 0 {
			buyAvg = r.BuyValue / float64(r.BuyQty)
		}
		if r.SellQty > 0 {
			sellAvg = r.SellValue / float64(r.SellQty)
		}
		matched := r.BuyQty
		if r.SellQty < matched {
			matched = r.SellQty
		}
		r.RealizedPnL = float64(matched) * (sellAvg - buyAvg)
		rec := []string{
			r.Symbol,
			strconv.FormatInt(r.BuyQty, 10),
			fmt.Sprintf("%.4f", buyAvg),
			strconv.FormatInt(r.SellQty, 10),
			fmt.Sprintf("%.4f", sellAvg),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			fmt.Sprintf("%.2f", r.BuyValue),
			fmt.Sprintf("%.2f", r.SellValue),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += r.BuyValue
		totalSell += r.SellValue
		totalPnL += r.RealizedPnL
	}
	_ = w.Write([]string{"TOTAL", "", "", "", "", fmt.Sprintf("%.2f", totalPnL), fmt.Sprintf("%.2f", totalBuy), fmt.Sprintf("%.2f", totalSell)})
	return outPath, nil
}

func (s *summarizer) SummarizeToday() (string, error) { return s.SummarizeDay(kstNow()) }

func (s *summarizer) ShouldRunNow() (bool, string) {
	now := kstNow()
	outPath := csvPath(now)
	if now.After(marketClose(now)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
