// Package config defines process configuration, loaded once at startup
// from the environment (optionally seeded from a dotenv file in cmd/) and
// immutable thereafter. A missing required value or invalid format fails
// startup immediately.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config is the top-level process configuration.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Storage       StorageConfig
	Prices        PricesConfig
	Notifications NotificationsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend     string `envconfig:"STORAGE_BACKEND" default:"memory" validate:"oneof=memory postgres redis"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB     int    `envconfig:"REDIS_DB" default:"0"`
}

// PricesConfig configures the upstream market-data client.
type PricesConfig struct {
	BaseURL string        `envconfig:"PRICES_API_URL" default:"https://api.preciodelaluz.org" validate:"required,url"`
	Timeout time.Duration `envconfig:"PRICES_API_TIMEOUT" default:"10s"`
}

// NotificationsConfig carries the startup defaults for the notification
// store. The user-facing config persisted by the store takes precedence
// once it exists.
type NotificationsConfig struct {
	RegenerationIntervalMinutes int `envconfig:"NOTIF_REGEN_INTERVAL_MINUTES" default:"30" validate:"gt=0"`
	MaxNotifications            int `envconfig:"NOTIF_MAX" default:"10" validate:"gt=0"`
	AutoExpireHours             int `envconfig:"NOTIF_EXPIRE_HOURS" default:"24" validate:"gt=0"`
}

// Load populates a Config from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	if cfg.Storage.Backend == "postgres" && cfg.Storage.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}
	return &cfg, nil
}
