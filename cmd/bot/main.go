package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kis-trading-bot/internal/eod"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/scheduler"
	"kis-trading-bot/internal/server"
	"kis-trading-bot/internal/trace"
)

func main() {
	if err := run(); err != nil {
		logger.Error(context.Background(), "Bot exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := initializeSystem(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = trace.Shutdown(shutdownCtx)
	}()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	brk, err := initializeBroker(ctx, cfg)
	if err != nil {
		return err
	}
	eng, err := initializeEngine(ctx, cfg, brk)
	if err != nil {
		return err
	}

	opts := server.Options{Strategies: strategyFactory(cfg)}
	if svc := initializeNews(ctx, cfg); svc != nil {
		opts.News = svc
	}
	srv := server.New(cfg.Server.Addr, eng, opts)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(ctx, eng, cfg.Universe, cfg.Scheduler.LogRetentionDays)
		if err := sched.RegisterAll(cfg.Scheduler.ScanCron); err != nil {
			return err
		}
		sched.Start()
		// First scan right away instead of waiting for the cron slot.
		go sched.RunScanNow()
	}

	go watchMarketClose(ctx)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		logger.Info(ctx, "Shutting down", "signal", sig.String())
	case err := <-errc:
		if err != nil {
			return err
		}
	}

	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(ctx, "HTTP server shutdown failed", err)
	}

	// Write the day's trade summary on the way out.
	if path, err := eod.SummarizeToday(); err != nil {
		logger.ErrorWithErr(ctx, "EOD summary failed", err)
	} else if path != "" {
		logger.Info(ctx, "EOD summary written", "csv_path", path)
	}
	return nil
}

// watchMarketClose writes the day's summary once the market has closed, so a
// bot left running overnight still produces its CSV without a restart.
func watchMarketClose(ctx context.Context) {
	tick := time.NewTicker(60 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if ok, _ := eod.ShouldRunNow(); !ok {
				continue
			}
			if path, err := eod.SummarizeToday(); err != nil {
				logger.ErrorWithErr(ctx, "EOD summary failed", err)
			} else if path != "" {
				logger.Info(ctx, "EOD summary written", "csv_path", path)
			}
		}
	}
}
