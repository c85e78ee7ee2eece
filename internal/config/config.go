package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Platform PlatformConfig `mapstructure:"platform"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PlatformConfig holds the expense platform API configuration
type PlatformConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds OpenAI API configuration. Receipt parsing is
// disabled when no api key is set.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AutosaveConfig holds local draft persistence configuration
type AutosaveConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// RatesConfig holds exchange-rate lookup configuration
type RatesConfig struct {
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig holds where uploaded receipts are written and served from
type StorageConfig struct {
	ReceiptDir string `mapstructure:"receipt_dir"`
	PublicPath string `mapstructure:"public_path"`
}

// PolicyConfig holds host policy applied to every form
type PolicyConfig struct {
	RequireAccountingCategory bool   `mapstructure:"require_accounting_category"`
	CollectiveCurrency        string `mapstructure:"collective_currency"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty path reads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Policy.CollectiveCurrency = strings.ToUpper(cfg.Policy.CollectiveCurrency)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_size", 10<<20)

	// Database defaults
	v.SetDefault("database.path", "data/expense-intake.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Platform defaults
	v.SetDefault("platform.timeout", 30*time.Second)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.timeout", 60*time.Second)

	// Autosave defaults
	v.SetDefault("autosave.enabled", true)
	v.SetDefault("autosave.debounce", 1500*time.Millisecond)

	// Rates defaults
	v.SetDefault("rates.cache_ttl", 12*time.Hour)
	v.SetDefault("rates.request_timeout", 10*time.Second)

	// Storage defaults
	v.SetDefault("storage.receipt_dir", "data/receipts")
	v.SetDefault("storage.public_path", "/receipts")

	// Policy defaults
	v.SetDefault("policy.require_accounting_category", false)
	v.SetDefault("policy.collective_currency", "USD")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"platform.base_url": "PLATFORM_BASE_URL",
		"platform.token":    "PLATFORM_TOKEN",
		"openai.api_key":    "OPENAI_API_KEY",
		"database.path":     "DATABASE_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url is required")
	}
	if c.Platform.Timeout <= 0 {
		return fmt.Errorf("platform.timeout must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	if !currency.IsValidCode(c.Policy.CollectiveCurrency) {
		return fmt.Errorf("policy.collective_currency %q is not an ISO 4217 code", c.Policy.CollectiveCurrency)
	}

	if c.Autosave.Enabled && c.Autosave.Debounce <= 0 {
		return fmt.Errorf("autosave.debounce must be positive")
	}

	return nil
}
