package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the contract tool configuration
type Config struct {
	Etherscan  EtherscanConfig  `mapstructure:"etherscan"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Importer   ImporterConfig   `mapstructure:"importer"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// EtherscanConfig contains block-explorer API settings
type EtherscanConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ImporterConfig contains batch import settings
type ImporterConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// MonitoringConfig contains the optional metrics endpoint settings
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables. The
// ETHERSCAN_API_KEY and DATABASE_PASSWORD environment variables override the
// file values so credentials can stay out of the config file.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.BindEnv("etherscan.api_key", "ETHERSCAN_API_KEY")
	_ = viper.BindEnv("database.password", "DATABASE_PASSWORD")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Etherscan defaults (free tier: 5 requests per second)
	viper.SetDefault("etherscan.base_url", "https://api.etherscan.io/v2/api")
	viper.SetDefault("etherscan.requests_per_second", 5)
	viper.SetDefault("etherscan.max_retries", 3)
	viper.SetDefault("etherscan.request_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "contracts")

	// Importer defaults
	viper.SetDefault("importer.batch_size", 50)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", false)
	viper.SetDefault("monitoring.metrics_port", 9090)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.output_path", "stdout")
}

// ValidateFetch checks the settings the fetch path needs before any network
// work starts.
func (c *Config) ValidateFetch() error {
	if c.Etherscan.APIKey == "" {
		return fmt.Errorf("etherscan.api_key is required (or set ETHERSCAN_API_KEY)")
	}
	return nil
}

// ValidateImport checks the settings the import path needs before any
// database work starts.
func (c *Config) ValidateImport() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	return nil
}
