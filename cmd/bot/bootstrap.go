package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"kis-trading-bot/internal/broker/brokerobs"
	"kis-trading-bot/internal/broker/kis"
	"kis-trading-bot/internal/broker/kite"
	"kis-trading-bot/internal/broker/mock"
	"kis-trading-bot/internal/engine"
	"kis-trading-bot/internal/engine/engineobs"
	"kis-trading-bot/internal/eod"
	"kis-trading-bot/internal/eod/eodobs"
	"kis-trading-bot/internal/interfaces"
	"kis-trading-bot/internal/logger"
	"kis-trading-bot/internal/news"
	"kis-trading-bot/internal/store"
	"kis-trading-bot/internal/strategy"
	"kis-trading-bot/internal/trace"
)

// initializeSystem initializes logger, tracer, and the EOD summarizer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	eod.SetDefaultSummarizer(eodobs.Wrap(eod.NewSummarizer()))
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	logger.Info(ctx, "Configuration loaded",
		"path", path, "mode", cfg.Mode, "broker", cfg.Broker,
		"strategy", cfg.Strategy.Name, "universe", len(cfg.Universe))
	return cfg, nil
}

// initializeBroker builds the configured brokerage adapter wrapped with
// observability middleware.
func initializeBroker(ctx context.Context, cfg *store.Config) (interfaces.Broker, error) {
	var (
		brk interfaces.Broker
		err error
	)
	switch cfg.Broker {
	case "KIS":
		brk, err = kis.New(kis.Params{
			AppKey:      os.Getenv(cfg.KIS.AppKeyEnv),
			AppSecret:   os.Getenv(cfg.KIS.AppSecretEnv),
			AccountNo:   cfg.KIS.AccountNo,
			ProductCode: cfg.KIS.ProductCode,
			Virtual:     cfg.KIS.Virtual,
		})
		if err == nil && cfg.KIS.Virtual {
			logger.Info(ctx, "Using KIS virtual trading gateway")
		}
	case "KITE":
		brk, err = kite.New(kite.Params{
			APIKey:           os.Getenv(cfg.Kite.APIKeyEnv),
			AccessToken:      os.Getenv(cfg.Kite.AccessTokenEnv),
			Exchange:         cfg.Kite.Exchange,
			InstrumentTokens: cfg.Kite.InstrumentTokens,
		})
	case "MOCK":
		brk = mock.New()
		logger.Info(ctx, "Using mock broker with synthetic market data")
	default:
		return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s broker: %w", cfg.Broker, err)
	}

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	return brokerobs.Wrap(brk), nil
}

// strategyFactory builds strategies by name with parameters taken from the
// configuration. Shared between startup and the strategy-switch endpoint.
func strategyFactory(cfg *store.Config) func(name string) (interfaces.Strategy, error) {
	return func(name string) (interfaces.Strategy, error) {
		switch name {
		case "bollinger_williams":
			return strategy.NewBollingerWilliams(strategy.BollingerWilliamsParams{
				BBWindow:     cfg.Strategy.Bollinger.Window,
				BBStdDev:     cfg.Strategy.Bollinger.StdDev,
				SourceField:  cfg.Strategy.Bollinger.SourceField,
				WRPeriod:     cfg.Strategy.Williams.Period,
				WROversold:   cfg.Strategy.Williams.Oversold,
				WROverbought: cfg.Strategy.Williams.Overbought,
			})
		case "ma_crossover":
			return strategy.NewMACrossover(strategy.MACrossoverParams{
				FastWindow: cfg.Strategy.MACrossover.FastWindow,
				SlowWindow: cfg.Strategy.MACrossover.SlowWindow,
			})
		default:
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
	}
}

// initializeEngine builds the trading engine with the configured strategy,
// wrapped with observability middleware.
func initializeEngine(ctx context.Context, cfg *store.Config, brk interfaces.Broker) (interfaces.Engine, error) {
	strat, err := strategyFactory(cfg)(cfg.Strategy.Name)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Strategy initialized", "strategy", strat.Name())

	eng := engine.New(brk, strat, engine.Options{
		LookbackDays: cfg.LookbackDays,
		DryRun:       cfg.Mode == "DRY_RUN",
	})
	return engineobs.Wrap(eng), nil
}

// initializeNews builds the news sentiment service when enabled; a disabled
// config returns nil and the news endpoint reports itself unconfigured.
func initializeNews(ctx context.Context, cfg *store.Config) *news.Service {
	if !cfg.News.Enabled {
		logger.Info(ctx, "News sentiment service disabled")
		return nil
	}
	svc := news.NewService(&news.ServiceConfig{
		MaxArticles:    cfg.News.MaxItems,
		CacheDuration:  time.Duration(cfg.News.CacheTTL) * time.Minute,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	})
	logger.Info(ctx, "News sentiment service initialized",
		"max_items", cfg.News.MaxItems, "cache_ttl_minutes", cfg.News.CacheTTL)
	return svc
}
