package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for s-portfolio.
type Config struct {
	Environment string        `toml:"environment"`
	Storage     StorageConfig `toml:"storage"`
	Horizon     HorizonConfig `toml:"horizon"`
	Sync        SyncConfig    `toml:"sync"`
	Logging     LoggingConfig `toml:"logging"`
}

// StorageConfig holds the embedded store location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// HorizonConfig holds ledger network client configuration.
type HorizonConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
	PageLimit int    `toml:"page_limit"`
}

// GetTimeout parses and returns the HTTP timeout duration.
func (c *HorizonConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SyncConfig controls the periodic account sync loop.
type SyncConfig struct {
	Interval  string `toml:"interval"`
	Valuation bool   `toml:"valuation"` // compute native-unit valuations after each sync
}

// GetInterval parses and returns the sync interval.
func (c *SyncConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Path: "data/sportfolio",
		},
		Horizon: HorizonConfig{
			BaseURL:   "https://horizon.stellar.org",
			RateLimit: 10,
			Timeout:   "30s",
			PageLimit: 200,
		},
		Sync: SyncConfig{
			Interval:  "15m",
			Valuation: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies SPORTFOLIO_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SPORTFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("SPORTFOLIO_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if url := os.Getenv("SPORTFOLIO_HORIZON_URL"); url != "" {
		config.Horizon.BaseURL = url
	}

	if rl := os.Getenv("SPORTFOLIO_HORIZON_RATE_LIMIT"); rl != "" {
		if n, err := strconv.Atoi(rl); err == nil {
			config.Horizon.RateLimit = n
		}
	}

	if iv := os.Getenv("SPORTFOLIO_SYNC_INTERVAL"); iv != "" {
		config.Sync.Interval = iv
	}

	if level := os.Getenv("SPORTFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
