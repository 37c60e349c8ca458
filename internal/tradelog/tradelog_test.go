package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"kis-trading-bot/internal/types"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestAppendOrderWritesDailyJSONL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	entries := []OrderEntry{
		{Symbol: "005930", Side: string(types.OrderBuy), Qty: 10, Price: 70000, OrderID: "ODNO-1", Success: true},
		{Symbol: "000660", Side: string(types.OrderSell), Qty: 5, Price: 130000, Success: false, Error: "insufficient balance"},
	}
	for _, e := range entries {
		if err := AppendOrder(e); err != nil {
			t.Fatalf("AppendOrder: %v", err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one daily file, got %v (err=%v)", matches, err)
	}
	lines := readLines(t, matches[0])
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var got OrderEntry
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Symbol != "000660" || got.Success || got.Error != "insufficient balance" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Time == "" {
		t.Error("entry time not stamped")
	}
}

func TestAppendSignalWritesUnderSignalsDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	price := 70000.0
	err := AppendSignal(SignalEntry{
		Symbol:   "005930",
		Signal:   string(types.SignalBuy),
		Reason:   "price below lower band",
		Price:    &price,
		Strategy: "bollinger_williams",
	})
	if err != nil {
		t.Fatalf("AppendSignal: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "signals", "*.txt"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one signals file, got %v (err=%v)", matches, err)
	}
	var got SignalEntry
	if err := json.Unmarshal([]byte(readLines(t, matches[0])[0]), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Signal != "BUY" || got.Price == nil || *got.Price != 70000 {
		t.Errorf("unexpected entry: %+v", got)
	}
}
