// Package eodobs wraps an end-of-day summarizer with tracing and logging.
package eodobs

import (
	"context"
	"time"

	"kis-trading-bot/internal/eod"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/trace"
)

type observableSummarizer struct {
	summarizer eod.Summarizer
}

var _ eod.Summarizer = (*observableSummarizer)(nil)

func Wrap(summarizer eod.Summarizer) eod.Summarizer {
	return &observableSummarizer{summarizer: summarizer}
}

func (o *observableSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "eod.SummarizeDay")
	defer span.End()

	date := t.Format("2006-01-02")
	csvPath, err := o.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErr(ctx, "EOD summary generation failed", err, "date", date)
		return "", err
	}
	if csvPath == "" {
		logger.Info(ctx, "No filled orders for EOD summary", "date", date)
		return "", nil
	}
	logger.Info(ctx, "EOD summary generated", "date", date, "csv_path", csvPath)
	return csvPath, nil
}

func (o *observableSummarizer) SummarizeToday() (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "eod.SummarizeToday")
	defer span.End()

	csvPath, err := o.summarizer.SummarizeToday()
	if err != nil {
		logger.ErrorWithErr(ctx, "EOD summary generation failed", err)
		return "", err
	}
	if csvPath == "" {
		logger.Info(ctx, "No filled orders for today's EOD summary")
		return "", nil
	}
	logger.Info(ctx, "EOD summary generated", "csv_path", csvPath)
	return csvPath, nil
}

func (o *observableSummarizer) ShouldRunNow() (bool, string) {
	ctx, span := trace.StartSpan(context.Background(), "eod.ShouldRunNow")
	defer span.End()

	shouldRun, csvPath := o.summarizer.ShouldRunNow()
	logger.Debug(ctx, "EOD check completed", "should_run", shouldRun, "csv_path", csvPath)
	return shouldRun, csvPath
}
