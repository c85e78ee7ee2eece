package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
platform:
  base_url: https://api.example.test
  timeout: 5s
policy:
  require_accounting_category: true
  collective_currency: eur
autosave:
  debounce: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://api.example.test", cfg.Platform.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Platform.Timeout)
	assert.True(t, cfg.Policy.RequireAccountingCategory)
	assert.Equal(t, "EUR", cfg.Policy.CollectiveCurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Autosave.Debounce)

	// defaults
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 12*time.Hour, cfg.Rates.CacheTTL)
	assert.True(t, cfg.Autosave.Enabled)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "/receipts", cfg.Storage.PublicPath)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PLATFORM_BASE_URL", "https://env.example.test")
	t.Setenv("PLATFORM_TOKEN", "secret-token")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.test", cfg.Platform.BaseURL)
	assert.Equal(t, "secret-token", cfg.Platform.Token)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "USD", cfg.Policy.CollectiveCurrency)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "data/test.db"},
			Platform: PlatformConfig{BaseURL: "https://api.example.test", Timeout: time.Second},
			Policy:   PolicyConfig{CollectiveCurrency: "USD"},
			Autosave: AutosaveConfig{Enabled: true, Debounce: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.Platform.BaseURL = "" }, wantErr: "platform.base_url"},
		{name: "zero timeout", mutate: func(c *Config) { c.Platform.Timeout = 0 }, wantErr: "platform.timeout"},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "bad currency", mutate: func(c *Config) { c.Policy.CollectiveCurrency = "XYZ1" }, wantErr: "collective_currency"},
		{name: "zero debounce", mutate: func(c *Config) { c.Autosave.Debounce = 0 }, wantErr: "autosave.debounce"},
		{name: "autosave disabled ignores debounce", mutate: func(c *Config) {
			c.Autosave.Enabled = false
			c.Autosave.Debounce = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := &Config{
		Platform: PlatformConfig{BaseURL: "https://api.example.test", Token: "t", Timeout: time.Second},
		Policy:   PolicyConfig{RequireAccountingCategory: true, CollectiveCurrency: "EUR"},
		Rates:    RatesConfig{CacheTTL: time.Hour, RequestTimeout: 3 * time.Second},
		Autosave: AutosaveConfig{Enabled: true, Debounce: time.Second},
		Storage:  StorageConfig{ReceiptDir: "data/receipts", PublicPath: "/receipts"},
	}

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "data/receipts", cc.Storage.ReceiptDir)
	assert.Equal(t, "https://api.example.test", cc.Platform.BaseURL)
	assert.Equal(t, "EUR", cc.Form.DefaultCurrency)
	assert.True(t, cc.Form.Policy.RequireAccountingCategory)
	assert.Equal(t, time.Hour, cc.Form.RateCacheTTL)
	assert.True(t, cc.Worker.AutosaveEnabled)
}
