package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Redis (empty disables result caching)
	RedisURL string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	// Optimization
	SalaryCap           int           `mapstructure:"SALARY_CAP"`
	MaxLineups          int           `mapstructure:"MAX_LINEUPS"`
	OptimizationTimeout time.Duration `mapstructure:"OPTIMIZATION_TIMEOUT"`
	DefaultContestType  string        `mapstructure:"DEFAULT_CONTEST_TYPE"`
	BatchWorkers        int           `mapstructure:"BATCH_WORKERS"`
}

// LoadConfig reads configuration from the environment and an optional .env file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	v.SetDefault("PORT", "8082")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "15m")
	v.SetDefault("SALARY_CAP", 50000)
	v.SetDefault("MAX_LINEUPS", 150)
	v.SetDefault("OPTIMIZATION_TIMEOUT", "30s")
	v.SetDefault("DEFAULT_CONTEST_TYPE", "mid-size")
	v.SetDefault("BATCH_WORKERS", 4)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.SalaryCap <= 0 {
		return fmt.Errorf("SALARY_CAP must be positive, got %d", c.SalaryCap)
	}
	if c.MaxLineups <= 0 {
		return fmt.Errorf("MAX_LINEUPS must be positive, got %d", c.MaxLineups)
	}
	if c.OptimizationTimeout <= 0 {
		return fmt.Errorf("OPTIMIZATION_TIMEOUT must be positive, got %s", c.OptimizationTimeout)
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive, got %d", c.BatchWorkers)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
