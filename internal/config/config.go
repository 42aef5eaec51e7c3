package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockForecast/internal/collector"
	"StockForecast/internal/forecast"
	"StockForecast/internal/httputil"
	"StockForecast/internal/model"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Source  string `yaml:"source"` // yahoo | chart | auto | mock
		BaseURL string `yaml:"base_url"`
		Retries int    `yaml:"retries"`
	} `yaml:"data_source"`
	Directory struct {
		Extra []model.Company `yaml:"extra"`
	} `yaml:"directory"`
	Forecast struct {
		HorizonDays int              `yaml:"horizon_days"`
		Model       forecast.Options `yaml:"model"`
	} `yaml:"forecast"`
	Chart struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"chart"`
	UI struct {
		Title     string `yaml:"title"`
		MaxCharts int    `yaml:"max_charts"`
	} `yaml:"ui"`
	Schedule struct {
		WatchlistCron string   `yaml:"watchlist_cron"`
		Watchlist     []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.DataSource.Source = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WATCHLIST_CRON"); v != "" {
		c.Schedule.WatchlistCron = v
	}
	if v := os.Getenv("FORECAST_HORIZON_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FORECAST_HORIZON_DAYS: %w", err)
		}
		c.Forecast.HorizonDays = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Source == "" {
		c.DataSource.Source = collector.SourceYahoo
	}
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = collector.DefaultYahooBaseURL
	}
	if c.DataSource.Retries == 0 {
		c.DataSource.Retries = httputil.DefaultRetry.MaxAttempts
	}
	if c.Forecast.HorizonDays == 0 {
		c.Forecast.HorizonDays = forecast.DefaultHorizon
	}
	c.Forecast.Model = c.Forecast.Model.Normalize()
	if c.Chart.Width == 0 {
		c.Chart.Width = 1000
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = 600
	}
	if c.UI.Title == "" {
		c.UI.Title = "Stock Forecast"
	}
	if c.Schedule.WatchlistCron == "" {
		c.Schedule.WatchlistCron = "0 30 18 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "logs/stockforecast.log"
	}
}

// Retry returns the HTTP retry policy for the fetchers.
func (c *Config) Retry() httputil.RetryConfig {
	r := httputil.DefaultRetry
	r.MaxAttempts = c.DataSource.Retries
	return r
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	switch c.DataSource.Source {
	case collector.SourceYahoo, collector.SourceChart, collector.SourceAuto, collector.SourceMock:
	default:
		return fmt.Errorf("data_source.source %q is not one of yahoo, chart, auto, mock", c.DataSource.Source)
	}
	if c.DataSource.Retries < 1 {
		return fmt.Errorf("data_source.retries must be >= 1")
	}
	if c.Forecast.HorizonDays < 0 {
		return fmt.Errorf("forecast.horizon_days must be >= 0")
	}
	if err := c.Forecast.Model.Validate(); err != nil {
		return fmt.Errorf("forecast.model: %w", err)
	}
	if c.UI.MaxCharts < 0 {
		return fmt.Errorf("ui.max_charts must be >= 0")
	}
	if c.Chart.Width < 100 || c.Chart.Height < 100 {
		return fmt.Errorf("chart size %dx%d is too small", c.Chart.Width, c.Chart.Height)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// ValidateBot additionally checks the Telegram fields needed by the bot.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if len(c.Schedule.Watchlist) == 0 {
		slog.Warn("schedule.watchlist is empty, digest job will be idle")
	}
	return nil
}
