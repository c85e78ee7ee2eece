package config

import (
	"github.com/garyjia/expense-intake/internal/container"
	"github.com/garyjia/expense-intake/internal/validation"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Platform: container.PlatformConfig{
			BaseURL: c.Platform.BaseURL,
			Token:   c.Platform.Token,
			Timeout: c.Platform.Timeout,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:      c.OpenAI.APIKey,
			Model:       c.OpenAI.Model,
			Temperature: c.OpenAI.Temperature,
			MaxTokens:   c.OpenAI.MaxTokens,
			Timeout:     c.OpenAI.Timeout,
		},
		Form: container.FormConfig{
			DefaultCurrency: c.Policy.CollectiveCurrency,
			Policy: validation.Policy{
				RequireAccountingCategory: c.Policy.RequireAccountingCategory,
			},
			RateCacheTTL:       c.Rates.CacheTTL,
			RateRequestTimeout: c.Rates.RequestTimeout,
		},
		Storage: container.StorageConfig{
			ReceiptDir: c.Storage.ReceiptDir,
			PublicPath: c.Storage.PublicPath,
		},
		Worker: container.WorkerConfig{
			AutosaveEnabled:  c.Autosave.Enabled,
			AutosaveDebounce: c.Autosave.Debounce,
			// expired rows are purged once per TTL period
			RatePurgeInterval: c.Rates.CacheTTL,
		},
	}
}
