package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Storage  StorageConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

// AIConfig holds the language model provider configuration. The
// provider is optional: when APIKey is empty the analysis pipeline
// serves rule-based fallback results instead of failing.
type AIConfig struct {
	BaseURL string
	APIKey  string
}

// StorageConfig holds blob storage configuration
type StorageConfig struct {
	AccountName     string
	AccountKey      string
	ReportContainer string
}

// SecurityConfig holds encryption configuration. EncryptionKey is a
// base64-encoded 32-byte AES key for notes at rest; empty disables
// encryption.
type SecurityConfig struct {
	EncryptionKey string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.allowedorigins", []string{"http://localhost:3000"})

	// Database defaults
	v.SetDefault("database.maxconns", 25)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)

	// AI defaults: Gemini's OpenAI-compatible endpoint
	v.SetDefault("ai.baseurl", "https://generativelanguage.googleapis.com/v1beta/openai/")

	// Storage defaults
	v.SetDefault("storage.reportcontainer", "health-reports")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")
	v.BindEnv("server.allowedorigins", "ALLOWED_ORIGINS")

	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// AI provider
	v.BindEnv("ai.baseurl", "AI_BASE_URL")
	v.BindEnv("ai.apikey", "GEMINI_API_KEY", "AI_API_KEY")

	// Blob storage
	v.BindEnv("storage.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("storage.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("storage.reportcontainer", "AZURE_STORAGE_REPORT_CONTAINER")

	// Security
	v.BindEnv("security.encryptionkey", "NOTES_ENCRYPTION_KEY")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid. The AI API key is
// deliberately not required: its absence degrades analysis to
// fallback results, it never blocks startup.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	if c.Storage.AccountName == "" || c.Storage.AccountKey == "" {
		return fmt.Errorf("azure storage credentials are required (account name + key)")
	}

	if c.AI.APIKey != "" && c.AI.BaseURL == "" {
		return fmt.Errorf("ai.baseurl is required when ai.apikey is set")
	}

	return nil
}

// AIConfigured reports whether a language model provider is available
func (c *Config) AIConfigured() bool {
	return c.AI.APIKey != ""
}
