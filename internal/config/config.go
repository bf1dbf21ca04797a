package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Primary Primary       `koanf:"primary"`
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env"`
}

type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout"`
	WriteTimeout int    `koanf:"write_timeout"`
	IdleTimeout  int    `koanf:"idle_timeout"`
}

type StorageConfig struct {
	Driver         string `koanf:"driver" validate:"omitempty,oneof=dynamodb memory"`
	Table          string `koanf:"table" validate:"required"`
	Region         string `koanf:"region"`
	Endpoint       string `koanf:"endpoint"`
	AccessKey      string `koanf:"access_key"`
	SecretKey      string `koanf:"secret_key"`
	ReadLimit      int    `koanf:"read_limit" validate:"omitempty,gt=0"`
	RetryAttempts  int    `koanf:"retry_attempts"`
	RetryBackoffMS int    `koanf:"retry_backoff_ms"`
}

// Load reads configuration from LOGVAULT_-prefixed environment variables.
// Nested keys use a double underscore, e.g. LOGVAULT_STORAGE__TABLE. A missing
// table name is a configuration error: the caller must refuse to start rather
// than fail obscurely on the first request.
func Load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("LOGVAULT_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "LOGVAULT_")), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Primary.Env == "" {
		c.Primary.Env = "development"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "dynamodb"
	}
	if c.Storage.ReadLimit <= 0 {
		c.Storage.ReadLimit = 100
	}
	if c.Storage.RetryAttempts <= 0 {
		c.Storage.RetryAttempts = 3
	}
	if c.Storage.RetryBackoffMS <= 0 {
		c.Storage.RetryBackoffMS = 100
	}
}
