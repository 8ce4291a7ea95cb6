package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	Payments struct {
		APIKey      string `yaml:"api_key"`
		IPNSecret   string `yaml:"ipn_secret"`
		CallbackURL string `yaml:"callback_url"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"payments"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	DataSource struct {
		BaseURL string   `yaml:"base_url"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"data_source"`
	Plans map[string]float64 `yaml:"plans"` // plan key -> price in USD
	Schedule struct {
		TickCron  string `yaml:"tick_cron"`
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		AnalyticsPath string `yaml:"analytics_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("NOWPAYMENTS_API_KEY"); v != "" {
		cfg.Payments.APIKey = v
	}
	if v := os.Getenv("NOWPAYMENTS_IPN_SECRET"); v != "" {
		cfg.Payments.IPNSecret = v
	}
	if v := os.Getenv("NOWPAYMENTS_CALLBACK_URL"); v != "" {
		cfg.Payments.CallbackURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("ANALYTICS_SQLITE_PATH"); v != "" {
		cfg.Database.AnalyticsPath = v
	}

	// Defaults
	if len(cfg.DataSource.Symbols) == 0 {
		cfg.DataSource.Symbols = []string{"BTC-USDT", "ETH-USDT", "XRP-USDT"}
	}
	if cfg.Plans == nil {
		cfg.Plans = map[string]float64{"1": 40, "2": 70}
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Schedule.TickCron == "" {
		cfg.Schedule.TickCron = "0 */5 * * * *"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 4 * * *" // 04:00 UTC
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signal_sentry.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Payments.APIKey == "" {
		return fmt.Errorf("payments.api_key is required")
	}
	if c.Payments.IPNSecret == "" {
		return fmt.Errorf("payments.ipn_secret is required")
	}
	if len(c.DataSource.Symbols) == 0 {
		return fmt.Errorf("data_source.symbols must not be empty")
	}
	for plan, price := range c.Plans {
		if price <= 0 {
			return fmt.Errorf("plans.%s price must be positive", plan)
		}
	}
	return nil
}
