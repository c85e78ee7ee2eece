// Package container provides dependency injection and lifecycle management
// for the expense intake service.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/validation"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Platform PlatformConfig
	OpenAI   OpenAIConfig
	Form     FormConfig
	Storage  StorageConfig
	Worker   WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PlatformConfig holds the expense platform API settings.
type PlatformConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// OpenAIConfig holds receipt extraction settings. An empty APIKey disables
// receipt parsing.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// StorageConfig holds where uploaded receipts are kept. An empty
// ReceiptDir leaves receipt URLs to the client.
type StorageConfig struct {
	ReceiptDir string

	// PublicPath is the URL prefix the receipt files are served under
	PublicPath string
}

// FormConfig holds the defaults every form session starts from.
type FormConfig struct {
	// DefaultCurrency is the collective currency of fresh drafts
	DefaultCurrency string

	Policy validation.Policy

	// RateCacheTTL is how long a fetched exchange rate is reused
	RateCacheTTL time.Duration

	// RateRequestTimeout bounds a single exchange-rate lookup
	RateRequestTimeout time.Duration
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	AutosaveEnabled  bool
	AutosaveDebounce time.Duration

	// RatePurgeInterval is how often expired rates are deleted; zero disables purging
	RatePurgeInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/expense-intake.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Platform: PlatformConfig{
			Timeout: 30 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o",
			Temperature: 0.1,
			MaxTokens:   800,
			Timeout:     60 * time.Second,
		},
		Form: FormConfig{
			DefaultCurrency:    "USD",
			RateCacheTTL:       12 * time.Hour,
			RateRequestTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			ReceiptDir: "data/receipts",
			PublicPath: "/receipts",
		},
		Worker: WorkerConfig{
			AutosaveEnabled:   true,
			AutosaveDebounce:  1500 * time.Millisecond,
			RatePurgeInterval: time.Hour,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url is required")
	}
	if !currency.IsValidCode(c.Form.DefaultCurrency) {
		return fmt.Errorf("form.default_currency %q is not a supported currency", c.Form.DefaultCurrency)
	}
	if c.Storage.ReceiptDir != "" && c.Storage.PublicPath == "" {
		return fmt.Errorf("storage.public_path is required when storage.receipt_dir is set")
	}
	if c.Worker.AutosaveEnabled && c.Worker.AutosaveDebounce <= 0 {
		return fmt.Errorf("worker.autosave_debounce must be positive")
	}
	return nil
}
