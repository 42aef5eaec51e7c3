package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Source != "yahoo" || cfg.DataSource.BaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("data source defaults = %+v", cfg.DataSource)
	}
	if cfg.Forecast.HorizonDays != 365 || cfg.Forecast.Model.IntervalWidth != 0.8 {
		t.Errorf("forecast defaults = %+v", cfg.Forecast)
	}
	if cfg.UI.MaxCharts != 0 || cfg.Database.SQLitePath != "" {
		t.Errorf("unexpected ui/database defaults %+v %+v", cfg.UI, cfg.Database)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
data_source:
  source: auto
directory:
  extra:
    - symbol: HDFCBANK.BO
      name: HDFC Bank Limited
forecast:
  horizon_days: 90
  model:
    yearly: "off"
ui:
  max_charts: 5
schedule:
  watchlist: [INFY.BO, TCS.BO]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Source != "auto" || cfg.Forecast.HorizonDays != 90 || cfg.UI.MaxCharts != 5 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Directory.Extra) != 1 || cfg.Directory.Extra[0].Symbol != "HDFCBANK.BO" {
		t.Errorf("extra = %+v", cfg.Directory.Extra)
	}
	if cfg.Forecast.Model.Yearly != "off" || cfg.Forecast.Model.Weekly != "auto" {
		t.Errorf("model = %+v", cfg.Forecast.Model)
	}
	if len(cfg.Schedule.Watchlist) != 2 {
		t.Errorf("watchlist = %v", cfg.Schedule.Watchlist)
	}
}

func TestLoad_ZeroMeansDefault(t *testing.T) {
	path := writeConfig(t, `
forecast:
  horizon_days: 0
  model:
    changepoint_count: -1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Forecast.HorizonDays != 365 {
		t.Errorf("horizon_days 0 = %d, want default 365", cfg.Forecast.HorizonDays)
	}
	if cfg.Forecast.Model.ChangepointCount != -1 {
		t.Errorf("changepoint_count = %d, want -1", cfg.Forecast.Model.ChangepointCount)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "data_source:\n  source: chart\n")
	t.Setenv("DATA_SOURCE", "mock")
	t.Setenv("YAHOO_BASE_URL", "http://localhost:9999")
	t.Setenv("FORECAST_HORIZON_DAYS", "30")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Source != "mock" || cfg.DataSource.BaseURL != "http://localhost:9999" {
		t.Errorf("data source = %+v", cfg.DataSource)
	}
	if cfg.Forecast.HorizonDays != 30 || cfg.Log.Level != "debug" {
		t.Errorf("horizon %d level %s", cfg.Forecast.HorizonDays, cfg.Log.Level)
	}
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("ValidateBot: %v", err)
	}
}

func TestLoad_BadHorizonEnv(t *testing.T) {
	t.Setenv("FORECAST_HORIZON_DAYS", "a year")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error for non-numeric horizon")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "ui: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"source", func(c *Config) { c.DataSource.Source = "bloomberg" }},
		{"retries", func(c *Config) { c.DataSource.Retries = -1 }},
		{"max charts", func(c *Config) { c.UI.MaxCharts = -2 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"chart size", func(c *Config) { c.Chart.Width = 10 }},
		{"interval", func(c *Config) { c.Forecast.Model.IntervalWidth = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateBot_RequiresTelegram(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.ValidateBot(); err == nil {
		t.Fatal("expected missing token error")
	}
}
