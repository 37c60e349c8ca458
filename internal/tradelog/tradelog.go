// Package tradelog appends order executions and emitted signals to daily
// JSONL files under the log directory, one file per Korean trading day.
package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// kst is the Korea Exchange trading timezone; daily files roll over at
// midnight KST regardless of the host clock.
var kst = time.FixedZone("KST", 9*3600)

type OrderEntry struct {
	Time    string         `json:"time"`
	Symbol  string         `json:"symbol"`
	Side    string         `json:"side"`
	Qty     int64          `json:"qty"`
	Price   float64        `json:"price"`
	OrderID string         `json:"order_id"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

type SignalEntry struct {
	Time       string              `json:"time"`
	Symbol     string              `json:"symbol"`
	Signal     string              `json:"signal"`
	Reason     string              `json:"reason"`
	Price      *float64            `json:"price,omitempty"`
	Strategy   string              `json:"strategy,omitempty"`
	Indicators map[string]*float64 `json:"indicators,omitempty"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func ordersFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.In(kst).Format("2006-01-02")+".txt")
}

func signalsFilepath(t time.Time) string {
	return filepath.Join(logDir(), "signals", t.In(kst).Format("2006-01-02")+".txt")
}

// AppendOrder records an order execution attempt, successful or not.
func AppendOrder(e OrderEntry) error {
	now := time.Now().In(kst)
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(ordersFilepath(now), e)
}

// AppendSignal records an emitted trading signal.
func AppendSignal(e SignalEntry) error {
	now := time.Now().In(kst)
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(signalsFilepath(now), e)
}

func appendLine(path string, v any) error {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips log files older than retentionDays and removes the
// originals. A non-positive retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		if e3 := compressFile(p, gz); e3 == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
