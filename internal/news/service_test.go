package news

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kis-trading-bot/internal/types"
)

func TestSentimentCache(t *testing.T) {
	cache := newSentimentCache(1 * time.Second)

	symbol := "005930"
	sentiment := types.NewsSentiment{
		Symbol:           symbol,
		OverallSentiment: "POSITIVE",
		OverallScore:     0.8,
		Timestamp:        time.Now().Unix(),
	}

	cache.set(symbol, sentiment)

	retrieved, found := cache.get(symbol)
	if !found {
		t.Fatal("Expected to find cached sentiment")
	}
	if retrieved.Symbol != symbol {
		t.Errorf("Expected symbol %s, got %s", symbol, retrieved.Symbol)
	}
	if retrieved.OverallScore != 0.8 {
		t.Errorf("Expected score 0.8, got %f", retrieved.OverallScore)
	}

	// Test expiration
	time.Sleep(2 * time.Second)
	_, found = cache.get(symbol)
	if found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()

	if cfg.MaxArticles != 15 {
		t.Errorf("Expected MaxArticles to be 15, got %d", cfg.MaxArticles)
	}
	if cfg.CacheDuration != 1*time.Hour {
		t.Errorf("Expected CacheDuration to be 1 hour, got %v", cfg.CacheDuration)
	}
	if !cfg.Enabled {
		t.Error("Expected Enabled to be true")
	}
}

func TestNewService(t *testing.T) {
	svc := NewService(nil)

	if svc == nil {
		t.Fatal("Expected service to be created")
	}
	if svc.scraper == nil {
		t.Error("Expected scraper to be initialized")
	}
	if svc.analyzer == nil {
		t.Error("Expected analyzer to be initialized")
	}
	if svc.cache == nil {
		t.Error("Expected cache to be initialized")
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: false})
	ctx := context.Background()

	sentiment, err := svc.Sentiment(ctx, "005930")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if sentiment.OverallSentiment != "NEUTRAL" {
		t.Errorf("Expected NEUTRAL sentiment when disabled, got %s", sentiment.OverallSentiment)
	}
	if sentiment.Summary != "Sentiment analysis disabled" {
		t.Errorf("Expected disabled message, got %s", sentiment.Summary)
	}
}

func TestCacheCleanup(t *testing.T) {
	cache := newSentimentCache(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		symbol := fmt.Sprintf("SYM%d", i)
		cache.set(symbol, types.NewsSentiment{
			Symbol:    symbol,
			Timestamp: time.Now().Unix(),
		})
	}

	time.Sleep(200 * time.Millisecond)
	cache.cleanup()

	cache.mu.RLock()
	count := len(cache.data)
	cache.mu.RUnlock()

	if count != 0 {
		t.Errorf("Expected 0 cache entries after cleanup, got %d", count)
	}
}

func TestCachedSymbols(t *testing.T) {
	svc := NewService(nil)

	symbols := []string{"005930", "000660", "035420"}
	for _, sym := range symbols {
		svc.cache.set(sym, types.NewsSentiment{
			Symbol:    sym,
			Timestamp: time.Now().Unix(),
		})
	}

	cached := svc.CachedSymbols()
	if len(cached) != 3 {
		t.Errorf("Expected 3 cached symbols, got %d", len(cached))
	}
}

func TestClearCache(t *testing.T) {
	svc := NewService(nil)

	svc.cache.set("005930", types.NewsSentiment{
		Symbol:    "005930",
		Timestamp: time.Now().Unix(),
	})

	if len(svc.CachedSymbols()) != 1 {
		t.Fatal("Expected 1 cached symbol")
	}

	svc.ClearCache()

	if got := len(svc.CachedSymbols()); got != 0 {
		t.Errorf("Expected 0 cached symbols after clear, got %d", got)
	}
}

func TestScoreText(t *testing.T) {
	a := NewSentimentAnalyzer()

	cases := []struct {
		text string
		want string // sign: "+", "-", "0"
	}{
		{"Samsung shares surge to record high after earnings beat", "+"},
		{"삼성전자 주가 급등, 신고가 경신", "+"},
		{"Chipmaker shares plunge after earnings miss and downgrade", "-"},
		{"반도체주 급락, 적자 전환 우려", "-"},
		{"Company schedules annual shareholder meeting", "0"},
	}
	for _, tc := range cases {
		score := a.ScoreText(tc.text)
		switch tc.want {
		case "+":
			if score <= 0 {
				t.Errorf("ScoreText(%q) = %f, want positive", tc.text, score)
			}
		case "-":
			if score >= 0 {
				t.Errorf("ScoreText(%q) = %f, want negative", tc.text, score)
			}
		case "0":
			if score != 0 {
				t.Errorf("ScoreText(%q) = %f, want 0", tc.text, score)
			}
		}
	}
}

func TestAnalyzeMultipleArticles(t *testing.T) {
	a := NewSentimentAnalyzer()
	ctx := context.Background()

	articles := []types.NewsArticle{
		{Title: "Shares surge on record high earnings", Symbol: "005930"},
		{Title: "Analysts upgrade outlook, strong gain expected", Symbol: "005930"},
		{Title: "Quarterly shareholder meeting scheduled", Symbol: "005930"},
	}
	sentiment, err := a.AnalyzeMultipleArticles(ctx, "005930", articles)
	if err != nil {
		t.Fatalf("AnalyzeMultipleArticles: %v", err)
	}
	if sentiment.OverallSentiment != "POSITIVE" {
		t.Errorf("sentiment = %s, want POSITIVE", sentiment.OverallSentiment)
	}
	if sentiment.ArticleCount != 3 {
		t.Errorf("article count = %d, want 3", sentiment.ArticleCount)
	}
	if sentiment.OverallScore <= 0 {
		t.Errorf("score = %f, want positive", sentiment.OverallScore)
	}
}

func TestAnalyzeNoArticles(t *testing.T) {
	a := NewSentimentAnalyzer()

	sentiment, err := a.AnalyzeMultipleArticles(context.Background(), "005930", nil)
	if err != nil {
		t.Fatalf("AnalyzeMultipleArticles: %v", err)
	}
	if sentiment.OverallSentiment != "NEUTRAL" {
		t.Errorf("sentiment = %s, want NEUTRAL", sentiment.OverallSentiment)
	}
	if sentiment.ArticleCount != 0 {
		t.Errorf("article count = %d, want 0", sentiment.ArticleCount)
	}
}
