package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers for the account store.
const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the resolved runtime configuration.
type Config struct {
	AppPort           string
	StorageDriver     string
	StorageTarget     string
	DatabaseDSN       string
	CohereAPIKey      string
	CohereURL         string
	CohereModel       string
	ChatTimeout       time.Duration
	JWTSecret         string
	SessionExpiration time.Duration
	RabbitMQURL       string
}

// LoadDotenv loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		log.Printf("[env] loaded %s", p)
	}
	return nil
}

// SetDefaults registers every key with its default value and enables
// environment lookups.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":5500")
	v.SetDefault("STORAGE_DRIVER", DriverJSON)
	v.SetDefault("STORAGE_TARGET", "users.json")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("COHERE_URL", "https://api.cohere.ai/v1/chat")
	v.SetDefault("COHERE_MODEL", "command")
	v.SetDefault("CHAT_TIMEOUT", "30s")
	v.SetDefault("JWT_SECRET", "secret_key")
	v.SetDefault("SESSION_EXPIRATION", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.AutomaticEnv()
	// KEY is the variable name used by existing deployments
	_ = v.BindEnv("COHERE_API_KEY", "COHERE_API_KEY", "KEY")
}

// Load reads the configuration from v and checks it.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		AppPort:           v.GetString("APP_PORT"),
		StorageDriver:     v.GetString("STORAGE_DRIVER"),
		StorageTarget:     v.GetString("STORAGE_TARGET"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		CohereAPIKey:      v.GetString("COHERE_API_KEY"),
		CohereURL:         v.GetString("COHERE_URL"),
		CohereModel:       v.GetString("COHERE_MODEL"),
		ChatTimeout:       v.GetDuration("CHAT_TIMEOUT"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		SessionExpiration: v.GetDuration("SESSION_EXPIRATION"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverJSON:
		if c.StorageTarget == "" {
			return fmt.Errorf("STORAGE_TARGET is required for the json driver")
		}
	case DriverSQLite:
		if c.StorageTarget == "" && c.DatabaseDSN == "" {
			return fmt.Errorf("STORAGE_TARGET is required for the %s driver", c.StorageDriver)
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be positive")
	}
	if c.SessionExpiration <= 0 {
		return fmt.Errorf("SESSION_EXPIRATION must be positive")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}
