// Package common provides shared utilities for folio
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for folio
type Config struct {
	Portfolio PortfolioConfig `toml:"portfolio"`
	Clients   ClientsConfig   `toml:"clients"`
	Prices    PricesConfig    `toml:"prices"`
	Logging   LoggingConfig   `toml:"logging"`
	Chart     ChartConfig     `toml:"chart"`
}

// PortfolioConfig holds where holdings live and how values are labelled.
type PortfolioConfig struct {
	DataPath string `toml:"data_path"`
	Currency string `toml:"currency"` // display label only, no conversion
}

// HoldingsFile returns the path of the persisted holdings document.
func (c *PortfolioConfig) HoldingsFile() string {
	return filepath.Join(c.DataPath, "holdings.json")
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
	DefaultExchange string `toml:"default_exchange"`
	LookbackDays    int    `toml:"lookback_days"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetLookback returns the trailing window used for the most recent close.
// The default spans ten calendar days so that a long market closure still
// leaves at least one trading day in the window.
func (c *EODHDConfig) GetLookback() time.Duration {
	if c.LookbackDays <= 0 {
		return 10 * 24 * time.Hour
	}
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// PricesConfig controls the price resolver.
type PricesConfig struct {
	Concurrency  int    `toml:"concurrency"`
	FetchTimeout string `toml:"fetch_timeout"`
}

// GetFetchTimeout parses and returns the per-ticker fetch bound
func (c *PricesConfig) GetFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	FilePath string `toml:"file_path"`
}

// ChartConfig sizes the allocation chart.
type ChartConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Portfolio: PortfolioConfig{
			DataPath: "data",
			Currency: "USD",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:         "https://eodhd.com/api",
				RateLimit:       10,
				Timeout:         "30s",
				DefaultExchange: "US",
				LookbackDays:    10,
			},
		},
		Prices: PricesConfig{
			Concurrency:  1,
			FetchTimeout: "15s",
		},
		Logging: LoggingConfig{
			Level:    "warn",
			FilePath: "",
		},
		Chart: ChartConfig{
			Width:  900,
			Height: 400,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	applyEnvOverrides(config)
	normalize(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if path := os.Getenv("FOLIO_DATA_PATH"); path != "" {
		config.Portfolio.DataPath = path
	}

	if cur := os.Getenv("FOLIO_CURRENCY"); cur != "" {
		config.Portfolio.Currency = cur
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	for _, name := range []string{"EODHD_API_KEY", "FOLIO_EODHD_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			config.Clients.EODHD.APIKey = key
			break
		}
	}

	if n := os.Getenv("FOLIO_PRICE_CONCURRENCY"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			config.Prices.Concurrency = v
		}
	}
}

// normalize clamps values that would break the engine.
func normalize(config *Config) {
	config.Portfolio.Currency = strings.ToUpper(strings.TrimSpace(config.Portfolio.Currency))
	if config.Portfolio.Currency == "" {
		config.Portfolio.Currency = "USD"
	}
	if config.Prices.Concurrency < 1 {
		config.Prices.Concurrency = 1
	}
	if config.Clients.EODHD.RateLimit < 1 {
		config.Clients.EODHD.RateLimit = 1
	}
	if config.Chart.Width <= 0 {
		config.Chart.Width = 900
	}
	if config.Chart.Height <= 0 {
		config.Chart.Height = 400
	}
}
