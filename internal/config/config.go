package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Database paths
	SQLitePath string `mapstructure:"sqlite-path" validate:"required"`
	FSMDBPath  string `mapstructure:"fsm-db-path" validate:"required"`

	// Bulk transfer
	ImageBatchSize int   `mapstructure:"image-batch-size" validate:"gte=1,lte=10000"`
	MaxImageSize   int64 `mapstructure:"max-image-size" validate:"gte=0"`

	// Logging
	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`

	// S3 configuration, only needed for remote transfers
	S3Bucket    string `mapstructure:"s3-bucket"`
	S3Region    string `mapstructure:"s3-region" validate:"required_with=S3Bucket"`
	S3Endpoint  string `mapstructure:"s3-endpoint" validate:"omitempty,url"`
	S3PathStyle bool   `mapstructure:"s3-path-style"`

	// Metrics textfile written after each command, empty to disable
	MetricsFile string `mapstructure:"metrics-file"`
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration through v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Set defaults
	v.SetDefault("sqlite-path", ".chembank/chembank.db")
	v.SetDefault("fsm-db-path", ".chembank/fsm")
	v.SetDefault("image-batch-size", 10)
	v.SetDefault("max-image-size", 32*1024*1024)
	v.SetDefault("log-level", "info")
	v.SetDefault("s3-bucket", "")
	v.SetDefault("s3-region", "us-east-1")
	v.SetDefault("s3-endpoint", "")
	v.SetDefault("s3-path-style", false)
	v.SetDefault("metrics-file", "")

	// Environment variables (will be CHEMBANK_SQLITE_PATH, etc.)
	v.SetEnvPrefix("CHEMBANK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.chembank")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireS3 checks that a bucket is configured for remote transfers.
func (c *Config) RequireS3() error {
	if c.S3Bucket == "" {
		return fmt.Errorf("s3-bucket cannot be empty for remote transfers")
	}
	return nil
}
