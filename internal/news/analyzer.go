package news

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kis-trading-bot/internal/api"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/trace"
	"kis-trading-bot/internal/types"
)

// SentimentAnalyzer scores headlines against a keyword lexicon. Crude next
// to a language model, but deterministic, free, and fast enough to run on
// every cached refresh.
type SentimentAnalyzer struct {
	http     *api.Client
	positive []string
	negative []string
}

func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{
		http: api.NewClient(
			api.WithTimeout(15 * time.Second),
			api.WithLogging(false),
		),
		positive: positiveLexicon(),
		negative: negativeLexicon(),
	}
}

// The lexicons carry both Korean and English financial phrasing since the
// sources mix the two.
func positiveLexicon() []string {
	return []string{
		"surge", "rally", "soar", "jump", "gain", "beat", "record high",
		"upgrade", "outperform", "buyback", "dividend increase", "profit growth",
		"상승", "급등", "호재", "최고치", "흑자", "매수", "실적 개선", "신고가", "강세",
	}
}

func negativeLexicon() []string {
	return []string{
		"plunge", "slump", "drop", "fall", "miss", "downgrade", "underperform",
		"lawsuit", "recall", "layoff", "probe", "loss widens",
		"하락", "급락", "악재", "적자", "매도", "실적 부진", "신저가", "약세", "소송",
	}
}

// ScoreText returns a sentiment score in [-1, 1] for one piece of text, or
// 0 when no lexicon entry matches.
func (a *SentimentAnalyzer) ScoreText(text string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	score := 0
	for _, kw := range a.positive {
		if strings.Contains(lower, kw) {
			score++
			hits++
		}
	}
	for _, kw := range a.negative {
		if strings.Contains(lower, kw) {
			score--
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return float64(score) / float64(hits)
}

// AnalyzeMultipleArticles aggregates per-article scores into one reading for
// the symbol. Articles with no lexicon hits count toward the article count
// but not the score.
func (a *SentimentAnalyzer) AnalyzeMultipleArticles(ctx context.Context, symbol string, articles []types.NewsArticle) (types.NewsSentiment, error) {
	ctx, span := trace.StartSpan(ctx, "analyze-news-sentiment")
	defer span.End()

	if len(articles) == 0 {
		return types.NewsSentiment{
			Symbol:           symbol,
			OverallSentiment: "NEUTRAL",
			Summary:          "no recent articles found",
			Timestamp:        time.Now().Unix(),
		}, nil
	}

	total := 0.0
	scored := 0
	for _, article := range articles {
		text := article.Title
		if article.Content != "" {
			text += " " + article.Content
		}
		if s := a.ScoreText(text); s != 0 {
			total += s
			scored++
		}
	}

	overall := 0.0
	if scored > 0 {
		overall = total / float64(scored)
	}
	label := "NEUTRAL"
	switch {
	case overall > 0.2:
		label = "POSITIVE"
	case overall < -0.2:
		label = "NEGATIVE"
	}

	logger.Debug(ctx, "Sentiment computed",
		"symbol", symbol, "articles", len(articles), "scored", scored, "score", overall)
	return types.NewsSentiment{
		Symbol:           symbol,
		OverallSentiment: label,
		OverallScore:     overall,
		ArticleCount:     len(articles),
		Summary:          fmt.Sprintf("%d of %d articles matched the sentiment lexicon", scored, len(articles)),
		Timestamp:        time.Now().Unix(),
	}, nil
}

// FetchArticleBody pulls the paragraph text of an article page, for sources
// whose listing carries only headlines.
func (a *SentimentAnalyzer) FetchArticleBody(ctx context.Context, articleURL string) (string, error) {
	resp, err := a.http.GET(ctx, articleURL, api.BrowserHeaders())
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return "", fmt.Errorf("parse article HTML: %w", err)
	}

	paragraphs := []string{}
	doc.Find("article p, div.article-body p, div#news_read p, div.news_view p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 20 {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n"), nil
}
