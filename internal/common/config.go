package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Collector   CollectorConfig  `toml:"collector"`
	Edgar       EdgarConfig      `toml:"edgar"`
	MarketData  MarketDataConfig `toml:"market_data"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
}

// CollectorConfig controls the collection cycle itself.
type CollectorConfig struct {
	RegistryFile string `toml:"registry_file" validate:"required"` // TOML master registry of tracked entities
	MappingFile  string `toml:"mapping_file" validate:"required"`  // TOML CUSIP-to-symbol mapping table
	TargetForm   string `toml:"target_form"`                       // Form type to retain from the filing index (default "13F-HR")
	Concurrency  int    `toml:"concurrency" validate:"min=1"`      // Entities processed in parallel (default 1)
	Schedule     string `toml:"schedule"`                          // Optional cron schedule; empty = run once and exit
}

// EdgarConfig configures the filing index/content client.
type EdgarConfig struct {
	BaseURL        string        `toml:"base_url"`                  // Submissions API base URL
	ArchiveURL     string        `toml:"archive_url"`               // Filing archive base URL
	UserAgent      string        `toml:"user_agent" validate:"required"` // SEC requires a contact User-Agent
	RequestDelay   time.Duration `toml:"request_delay"`             // Minimum delay between requests (shared across entities)
	RequestTimeout time.Duration `toml:"request_timeout"`           // HTTP request timeout
}

// MarketDataConfig configures the price history client.
type MarketDataConfig struct {
	BaseURL        string        `toml:"base_url"`
	APIKey         string        `toml:"api_key"`
	RateLimit      int           `toml:"rate_limit" validate:"min=1"` // Requests per second
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in tenax.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Collector: CollectorConfig{
			RegistryFile: "./registry.toml",
			MappingFile:  "./cusip_mapping.toml",
			TargetForm:   "13F-HR",
			Concurrency:  1, // Sequential by default; the remote throttle is shared regardless
		},
		Edgar: EdgarConfig{
			BaseURL:        "https://data.sec.gov/submissions",
			ArchiveURL:     "https://www.sec.gov/Archives/edgar/data",
			UserAgent:      "",
			RequestDelay:   1 * time.Second, // SEC fair-access guidance
			RequestTimeout: 30 * time.Second,
		},
		MarketData: MarketDataConfig{
			BaseURL:        "https://eodhd.com/api",
			RateLimit:      10,
			RequestTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration from a single TOML file.
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later config files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against struct validation tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TENAX_ENV"); env != "" {
		config.Environment = env
	}
	if registry := os.Getenv("TENAX_REGISTRY_FILE"); registry != "" {
		config.Collector.RegistryFile = registry
	}
	if mapping := os.Getenv("TENAX_MAPPING_FILE"); mapping != "" {
		config.Collector.MappingFile = mapping
	}
	if form := os.Getenv("TENAX_TARGET_FORM"); form != "" {
		config.Collector.TargetForm = form
	}
	if concurrency := os.Getenv("TENAX_COLLECTOR_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			config.Collector.Concurrency = n
		}
	}
	if schedule := os.Getenv("TENAX_COLLECTOR_SCHEDULE"); schedule != "" {
		config.Collector.Schedule = schedule
	}
	if userAgent := os.Getenv("TENAX_EDGAR_USER_AGENT"); userAgent != "" {
		config.Edgar.UserAgent = userAgent
	}
	if apiKey := os.Getenv("TENAX_MARKET_DATA_API_KEY"); apiKey != "" {
		config.MarketData.APIKey = apiKey
	}
	if badgerPath := os.Getenv("TENAX_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("TENAX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
