package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/types"
)

// Scraper collects headlines for a symbol from the configured sources.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source describes one news site and how to pull articles out of it.
type Source struct {
	Name       string
	BaseURL    string
	// SearchPath contains a {symbol} placeholder.
	SearchPath string
	Selectors  ArticleSelectors
	RateLimit  time.Duration
}

// ArticleSelectors holds the CSS selectors for one source's article list.
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	PublishedAt      string
}

// NewScraper creates a scraper over the default Korean finance sources.
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

// defaultSources lists the sites scraped per symbol. Naver Finance keys its
// news pages by the same 6-digit KRX code the brokerage uses.
func defaultSources() []Source {
	return []Source{
		{
			Name:       "NaverFinance",
			BaseURL:    "https://finance.naver.com",
			SearchPath: "/item/news_news.naver?code={symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "table.type5 tr",
				Title:            "td.title a",
				URL:              "td.title a",
				PublishedAt:      "td.date",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "DaumFinance",
			BaseURL:    "https://finance.daum.net",
			SearchPath: "/quotes/A{symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "ul.list_news li",
				Title:            "a.link_txt",
				URL:              "a.link_txt",
				PublishedAt:      "span.txt_date",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// ScrapeNews fetches headlines for a symbol from every source. A source
// failing is logged and skipped, never fatal.
func (s *Scraper) ScrapeNews(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	logger.Info(ctx, "Starting news scraping", "symbol", symbol, "sources", len(s.sources))

	allArticles := []types.NewsArticle{}
	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	for _, source := range s.sources {
		articles, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			continue
		}
		allArticles = append(allArticles, articles...)
		time.Sleep(source.RateLimit)
	}

	logger.Info(ctx, "News scraping completed", "symbol", symbol, "articles", len(allArticles))
	return allArticles, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains(hostname(source.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}
		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}
		articleURL := e.ChildAttr(source.Selectors.URL, "href")
		if articleURL == "" {
			return
		}
		if !strings.HasPrefix(articleURL, "http") {
			articleURL = source.BaseURL + articleURL
		}
		articles = append(articles, types.NewsArticle{
			Title:       title,
			URL:         articleURL,
			Source:      source.Name,
			PublishedAt: strings.TrimSpace(e.ChildText(source.Selectors.PublishedAt)),
			Symbol:      symbol,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", symbol)
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", searchURL, err)
	}
	c.Wait()
	return articles, nil
}

// ScrapeGoogleNews is the fallback when the primary sources return nothing.
func (s *Scraper) ScrapeGoogleNews(ctx context.Context, query string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com", "www.google.com"),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}
		title := e.ChildText("h3, h4")
		link := e.ChildAttr("a", "href")
		if title == "" || link == "" {
			return
		}
		if strings.HasPrefix(link, "./articles/") {
			link = "https://news.google.com" + link[1:]
		}
		articles = append(articles, types.NewsArticle{
			Title:  title,
			URL:    link,
			Source: "GoogleNews",
			Symbol: query,
		})
	})

	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=ko&gl=KR&ceid=KR:ko",
		url.QueryEscape(query+" 주식"))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("scrape Google News: %w", err)
	}
	c.Wait()

	logger.Info(ctx, "Google News scraping completed", "query", query, "articles", len(articles))
	return articles, nil
}

func hostname(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
