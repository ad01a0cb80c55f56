package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Formatter FormatterConfig `mapstructure:"formatter"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the configuration-store database settings
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig holds the template, output and data-source directories
type StorageConfig struct {
	TemplatesDir string `mapstructure:"templates_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	SourcesDir   string `mapstructure:"sources_dir"`
}

// FormatterConfig holds value-formatting settings. Timezone is the
// reference zone dates render in and DateFormat the fallback pattern for
// mappings without one; both are configuration, not per-call inputs, so a
// batch is deterministic for a fixed instant.
type FormatterConfig struct {
	Timezone   string `mapstructure:"timezone"`
	DateFormat string `mapstructure:"date_format"`
}

// DeliveryConfig holds delivery channel settings
type DeliveryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	LarkAppID      string `mapstructure:"lark_app_id"`
	LarkAppSecret  string `mapstructure:"lark_app_secret"`
	DefaultSubject string `mapstructure:"default_subject"`
	DefaultBody    string `mapstructure:"default_body"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/docstamp.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Storage defaults
	viper.SetDefault("storage.templates_dir", "templates")
	viper.SetDefault("storage.output_dir", "generated_documents")
	viper.SetDefault("storage.sources_dir", "sources")

	// Formatter defaults
	viper.SetDefault("formatter.timezone", "UTC")
	viper.SetDefault("formatter.date_format", "MM/DD/YYYY")

	// Delivery defaults
	viper.SetDefault("delivery.enabled", false)
	viper.SetDefault("delivery.default_subject", "Your document is ready")
	viper.SetDefault("delivery.default_body", "Please find your generated document attached.")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("delivery.lark_app_id", "LARK_APP_ID")
	viper.BindEnv("delivery.lark_app_secret", "LARK_APP_SECRET")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.TemplatesDir == "" {
		return fmt.Errorf("storage.templates_dir is required")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if c.Storage.SourcesDir == "" {
		return fmt.Errorf("storage.sources_dir is required")
	}
	if c.Delivery.Enabled {
		if c.Delivery.LarkAppID == "" {
			return fmt.Errorf("delivery.lark_app_id is required when delivery is enabled")
		}
		if c.Delivery.LarkAppSecret == "" {
			return fmt.Errorf("delivery.lark_app_secret is required when delivery is enabled")
		}
	}
	if _, err := time.LoadLocation(c.Formatter.Timezone); err != nil {
		return fmt.Errorf("formatter.timezone is invalid: %w", err)
	}
	return nil
}

// Location resolves the configured reference time zone. Validate has
// already checked it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Formatter.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
