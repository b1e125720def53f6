// Package config loads the folio service configuration from YAML with
// environment variable overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the folio service.
type Config struct {
	Server    Server    `yaml:"server"`
	Alpaca    Alpaca    `yaml:"alpaca"`
	Storage   Storage   `yaml:"storage"`
	Logging   Logging   `yaml:"logging"`
	Analytics Analytics `yaml:"analytics"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey          string `yaml:"api_key"`
	APISecret       string `yaml:"api_secret"`
	DataURL         string `yaml:"data_url"`
	Feed            string `yaml:"feed"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Storage holds paths for the bar cache and the run log.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	NoCache    bool   `yaml:"no_cache"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Analytics holds the knobs of the report pipeline.
type Analytics struct {
	// DefaultTickers is used when a request names no tickers.
	DefaultTickers []string `yaml:"default_tickers"`

	// LookbackDays is the default request range when no dates are given.
	LookbackDays int `yaml:"lookback_days"`

	// WindowDays is the trailing observation window for the rolling
	// optimizer.
	WindowDays int `yaml:"window_days"`

	// PadDays is how far the fetch start is pushed back beyond the
	// requested start so the first trailing window has history.
	PadDays int `yaml:"pad_days"`

	// RiskFreeRate is the annualized risk-free rate used by the optimizer.
	RiskFreeRate float64 `yaml:"risk_free_rate"`
}

// Load reads the YAML configuration file at the given path, applies
// environment variable overrides, and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars used by the SDK take priority.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// applyDefaults fills unset fields with working values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if len(cfg.Analytics.DefaultTickers) == 0 {
		cfg.Analytics.DefaultTickers = []string{
			"NVDA", "AAPL", "XOM", "PFE", "COST", "MO", "O", "BAC", "TSLA", "MCD",
		}
	}
	if cfg.Analytics.LookbackDays == 0 {
		cfg.Analytics.LookbackDays = 2 * 365
	}
	if cfg.Analytics.WindowDays == 0 {
		cfg.Analytics.WindowDays = 252
	}
	if cfg.Analytics.PadDays == 0 {
		cfg.Analytics.PadDays = 365
	}
}
