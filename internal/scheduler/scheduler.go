// Package scheduler runs the recurring jobs: periodic universe scans and
// trade log housekeeping.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/tradelog"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron          *cron.Cron
	engine        interfaces.Engine
	universe      []string
	retentionDays int
	ctx           context.Context
}

func New(ctx context.Context, eng interfaces.Engine, universe []string, retentionDays int) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		engine:        eng,
		universe:      universe,
		retentionDays: retentionDays,
		ctx:           ctx,
	}
}

// RegisterAll wires the scan job on the given cron spec and a nightly log
// compression pass.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	// Compress old trade logs shortly after the KST midnight rollover.
	if _, err := s.cron.AddFunc("10 0 * * *", s.compressTask); err != nil {
		return fmt.Errorf("register log compression task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info(s.ctx, "Scheduler started", "universe", len(s.universe))
}

// Stop stops the cron scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	logger.Info(s.ctx, "Scheduler stopped")
}

// RunScanNow executes the scan task immediately, for manual triggering at
// startup.
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	logger.Info(s.ctx, "Running scheduled scan", "symbols", len(s.universe))
	results := s.engine.ScanStocks(s.ctx, s.universe)

	actionable := 0
	for _, r := range results {
		if r.Signal.Actionable() {
			actionable++
			logger.Info(s.ctx, "Actionable signal from scheduled scan",
				"symbol", r.Symbol, "signal", string(r.Signal), "reason", r.Reason)
		}
	}
	logger.Info(s.ctx, "Scheduled scan finished", "results", len(results), "actionable", actionable)
}

func (s *Scheduler) compressTask() {
	if err := tradelog.CompressOlder(s.retentionDays); err != nil {
		logger.ErrorWithErr(s.ctx, "Trade log compression failed", err)
		return
	}
	logger.Debug(s.ctx, "Trade log compression finished", "retention_days", s.retentionDays)
}
