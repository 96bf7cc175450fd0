package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" env-default:""`

	Supabase  SupabaseConfig
	Database  DatabaseConfig
	Converter ConverterConfig
	Deploy    DeployConfig
}

type SupabaseConfig struct {
	URL            string `env:"SUPABASE_URL" env-default:""`
	PublishableKey string `env:"SUPABASE_PUBLISHABLE_KEY" env-default:""`
	JWTSecret      string `env:"SUPABASE_JWT_SECRET" env-default:""`
	StorageBucket  string `env:"SUPABASE_STORAGE_BUCKET" env-default:"migration-exports"`
	EventsTable    string `env:"SUPABASE_EVENTS_TABLE" env-default:"lifecycle_events"`
}

// Enabled reports whether the Supabase REST and storage APIs can be used.
// Auth only needs the JWT secret, so the API can run without them.
func (s SupabaseConfig) Enabled() bool {
	return s.URL != "" && s.PublishableKey != ""
}

type DatabaseConfig struct {
	Driver         string `env:"DATABASE_DRIVER" env-default:"postgres"`
	URL            string `env:"DATABASE_URL" env-default:""`
	MaxConnections int    `env:"DATABASE_MAX_CONNECTIONS" env-default:"25"`
}

type ConverterConfig struct {
	Provider string        `env:"CONVERTER_PROVIDER" env-default:"rules"`
	Endpoint string        `env:"CONVERTER_ENDPOINT" env-default:""`
	Model    string        `env:"CONVERTER_MODEL" env-default:""`
	APIKey   string        `env:"CONVERTER_API_KEY" env-default:""`
	Timeout  time.Duration `env:"CONVERSION_TIMEOUT" env-default:"2m"`
}

type DeployConfig struct {
	Driver  string        `env:"DEPLOY_DRIVER" env-default:""`
	DSN     string        `env:"DEPLOY_DSN" env-default:""`
	Timeout time.Duration `env:"DEPLOY_TIMEOUT" env-default:"5m"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}

	switch c.Converter.Provider {
	case "rules":
	case "openai", "anthropic":
		if c.Converter.APIKey == "" {
			return fmt.Errorf("CONVERTER_API_KEY is required for provider %s", c.Converter.Provider)
		}
	default:
		return fmt.Errorf("CONVERTER_PROVIDER must be rules, openai or anthropic, got %q", c.Converter.Provider)
	}
	if c.Converter.Timeout <= 0 {
		return fmt.Errorf("CONVERSION_TIMEOUT must be positive")
	}

	switch c.Deploy.Driver {
	case "":
	case "sqlserver", "postgres":
		if c.Deploy.DSN == "" {
			return fmt.Errorf("DEPLOY_DSN is required when DEPLOY_DRIVER is set")
		}
	default:
		return fmt.Errorf("DEPLOY_DRIVER must be sqlserver or postgres, got %q", c.Deploy.Driver)
	}

	return nil
}
