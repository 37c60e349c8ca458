// Package news scrapes Korean finance headlines and derives a sentiment
// reading per symbol. The reading is advisory only; nothing in the trading
// path depends on it.
package news

import (
	"context"
	"sync"
	"time"

	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

// Service provides cached news sentiment per symbol.
type Service struct {
	scraper  *Scraper
	analyzer *SentimentAnalyzer
	cache    *sentimentCache
	cfg      *ServiceConfig
}

// ServiceConfig configures the news sentiment service.
type ServiceConfig struct {
	MaxArticles    int
	CacheDuration  time.Duration
	ScraperTimeout time.Duration
	Enabled        bool
}

func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    15,
		CacheDuration:  1 * time.Hour,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

// sentimentCache stores sentiment results with a TTL.
type sentimentCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	sentiment types.NewsSentiment
	timestamp time.Time
}

func newSentimentCache(ttl time.Duration) *sentimentCache {
	cache := &sentimentCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
	go cache.cleanupLoop()
	return cache
}

func (c *sentimentCache) get(symbol string) (types.NewsSentiment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists {
		return types.NewsSentiment{}, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return types.NewsSentiment{}, false
	}
	return entry.sentiment, true
}

func (c *sentimentCache) set(symbol string, sentiment types.NewsSentiment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[symbol] = &cacheEntry{
		sentiment: sentiment,
		timestamp: time.Now(),
	}
}

func (c *sentimentCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *sentimentCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for symbol, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, symbol)
		}
	}
}

// NewService creates the news sentiment service. A nil config uses the
// defaults.
func NewService(serviceCfg *ServiceConfig) *Service {
	if serviceCfg == nil {
		serviceCfg = DefaultServiceConfig()
	}
	return &Service{
		scraper:  NewScraper(serviceCfg.ScraperTimeout),
		analyzer: NewSentimentAnalyzer(),
		cache:    newSentimentCache(serviceCfg.CacheDuration),
		cfg:      serviceCfg,
	}
}

// Sentiment retrieves news sentiment for a symbol, cached or fresh. It
// degrades to a neutral reading on any failure rather than erroring.
func (s *Service) Sentiment(ctx context.Context, symbol string) (types.NewsSentiment, error) {
	if !s.cfg.Enabled {
		return types.NewsSentiment{
			Symbol:           symbol,
			OverallSentiment: "NEUTRAL",
			Summary:          "Sentiment analysis disabled",
			Timestamp:        time.Now().Unix(),
		}, nil
	}

	if cached, ok := s.cache.get(symbol); ok {
		logger.Info(ctx, "Using cached sentiment", "symbol", symbol, "age_minutes",
			time.Since(time.Unix(cached.Timestamp, 0)).Minutes())
		return cached, nil
	}

	logger.Info(ctx, "Fetching fresh news sentiment", "symbol", symbol)
	sentiment, err := s.fetchFreshSentiment(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch sentiment", err, "symbol", symbol)
		return types.NewsSentiment{
			Symbol:           symbol,
			OverallSentiment: "NEUTRAL",
			Summary:          "Failed to fetch sentiment: " + err.Error(),
			Timestamp:        time.Now().Unix(),
		}, nil
	}

	s.cache.set(symbol, sentiment)
	return sentiment, nil
}

func (s *Service) fetchFreshSentiment(ctx context.Context, symbol string) (types.NewsSentiment, error) {
	articles, err := s.scraper.ScrapeNews(ctx, symbol, s.cfg.MaxArticles)
	if err != nil {
		return types.NewsSentiment{}, err
	}

	if len(articles) == 0 {
		logger.Info(ctx, "No articles from primary sources, trying Google News", "symbol", symbol)
		articles, err = s.scraper.ScrapeGoogleNews(ctx, symbol, s.cfg.MaxArticles)
		if err != nil {
			logger.ErrorWithErr(ctx, "Google News fallback failed", err, "symbol", symbol)
		}
	}

	return s.analyzer.AnalyzeMultipleArticles(ctx, symbol, articles)
}

// RefreshSentiment forces a fresh fetch, bypassing the cache.
func (s *Service) RefreshSentiment(ctx context.Context, symbol string) (types.NewsSentiment, error) {
	sentiment, err := s.fetchFreshSentiment(ctx, symbol)
	if err != nil {
		return types.NewsSentiment{}, err
	}
	s.cache.set(symbol, sentiment)
	return sentiment, nil
}

// ClearCache drops all cached sentiment data.
func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}

// CachedSymbols returns the symbols with a cache entry, expired or not.
func (s *Service) CachedSymbols() []string {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()

	symbols := make([]string, 0, len(s.cache.data))
	for symbol := range s.cache.data {
		symbols = append(symbols, symbol)
	}
	return symbols
}
