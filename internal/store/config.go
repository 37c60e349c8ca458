// Package store loads and validates the bot's YAML configuration.
package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Mode is DRY_RUN or LIVE; dry runs simulate order fills.
	Mode string `yaml:"mode"`
	// Broker selects the brokerage adapter: KIS, KITE or MOCK.
	Broker string `yaml:"broker"`
	// Universe is the symbol list scheduled scans analyze.
	Universe []string `yaml:"universe"`
	// LookbackDays is the calendar history window per analysis.
	LookbackDays int `yaml:"lookback_days"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Scheduler struct {
		Enabled bool `yaml:"enabled"`
		// ScanCron is a cron expression; the default scans hourly.
		ScanCron string `yaml:"scan_cron"`
		// LogRetentionDays controls trade log compression.
		LogRetentionDays int `yaml:"log_retention_days"`
	} `yaml:"scheduler"`

	Strategy struct {
		// Name selects the strategy: bollinger_williams or ma_crossover.
		Name string `yaml:"name"`
		Bollinger struct {
			Window      int     `yaml:"window"`
			StdDev      float64 `yaml:"stddev"`
			SourceField string  `yaml:"source_field"`
		} `yaml:"bollinger"`
		Williams struct {
			Period     int     `yaml:"period"`
			Oversold   float64 `yaml:"oversold"`
			Overbought float64 `yaml:"overbought"`
		} `yaml:"williams"`
		MACrossover struct {
			FastWindow int `yaml:"fast_window"`
			SlowWindow int `yaml:"slow_window"`
		} `yaml:"ma_crossover"`
	} `yaml:"strategy"`

	KIS struct {
		// AppKeyEnv and AppSecretEnv name the environment variables holding
		// the credentials, keeping secrets out of the config file.
		AppKeyEnv    string `yaml:"app_key_env"`
		AppSecretEnv string `yaml:"app_secret_env"`
		AccountNo    string `yaml:"account_no"`
		ProductCode  string `yaml:"product_code"`
		Virtual      bool   `yaml:"virtual"`
	} `yaml:"kis"`

	Kite struct {
		APIKeyEnv        string         `yaml:"api_key_env"`
		AccessTokenEnv   string         `yaml:"access_token_env"`
		Exchange         string         `yaml:"exchange"`
		InstrumentTokens map[string]int `yaml:"instrument_tokens"`
	} `yaml:"kite"`

	News struct {
		Enabled  bool `yaml:"enabled"`
		CacheTTL int  `yaml:"cache_ttl_minutes"`
		MaxItems int  `yaml:"max_items"`
	} `yaml:"news"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	switch c.Broker {
	case "KIS", "KITE", "MOCK":
	default:
		return fmt.Errorf("invalid broker '%s': must be 'KIS', 'KITE' or 'MOCK'", c.Broker)
	}
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	if c.LookbackDays < 0 {
		return fmt.Errorf("lookback_days must not be negative, got %d", c.LookbackDays)
	}
	switch c.Strategy.Name {
	case "bollinger_williams", "ma_crossover":
	default:
		return fmt.Errorf("invalid strategy '%s': must be 'bollinger_williams' or 'ma_crossover'", c.Strategy.Name)
	}
	if c.Broker == "KIS" && c.KIS.AccountNo == "" {
		return errors.New("kis.account_no is required for the KIS broker")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Broker == "" {
		c.Broker = "MOCK"
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = 90
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Scheduler.ScanCron == "" {
		c.Scheduler.ScanCron = "0 * * * *"
	}
	if c.Scheduler.LogRetentionDays == 0 {
		c.Scheduler.LogRetentionDays = 30
	}
	if c.Strategy.Name == "" {
		c.Strategy.Name = "bollinger_williams"
	}
	if c.KIS.AppKeyEnv == "" {
		c.KIS.AppKeyEnv = "KIS_APP_KEY"
	}
	if c.KIS.AppSecretEnv == "" {
		c.KIS.AppSecretEnv = "KIS_APP_SECRET"
	}
	if c.Kite.APIKeyEnv == "" {
		c.Kite.APIKeyEnv = "KITE_API_KEY"
	}
	if c.Kite.AccessTokenEnv == "" {
		c.Kite.AccessTokenEnv = "KITE_ACCESS_TOKEN"
	}
	if c.News.CacheTTL == 0 {
		c.News.CacheTTL = 30
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 10
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
