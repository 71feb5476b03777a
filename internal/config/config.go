package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"

	IsolationChannel = "channel"
	IsolationUser    = "user"
)

type Config struct {
	// Telegram
	BotToken   string
	OperatorID int64

	// Catalog
	CatalogSource string
	CatalogPath   string

	// Database (postgres catalog source only)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Quiz
	Isolation         string
	ChannelExclusive  bool
	MatchThreshold    float64
	SessionTTLMinutes int

	// Application
	AppEnv           string
	AppPort          string
	LogLevel         string
	RateLimitPerUser int
	WorkerCount      int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken: getEnv("BOT_TOKEN", ""),

		CatalogSource: strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceFile)),
		CatalogPath:   getEnv("CATALOG_PATH", "data/dsos.json"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "astrobot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "astrobot_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Isolation:         strings.ToLower(getEnv("ISOLATION", IsolationChannel)),
		ChannelExclusive:  getEnvBool("CHANNEL_EXCLUSIVE", false),
		MatchThreshold:    getEnvFloat("MATCH_THRESHOLD", 0.7),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 0),

		AppEnv:           getEnv("APP_ENV", "development"),
		AppPort:          getEnv("APP_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 20),
		WorkerCount:      getEnvInt("WORKER_COUNT", 10),
	}

	operatorStr := getEnv("OPERATOR_TELEGRAM_ID", "")
	if operatorStr != "" {
		id, err := strconv.ParseInt(operatorStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPERATOR_TELEGRAM_ID: %w", err)
		}
		cfg.OperatorID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	switch c.CatalogSource {
	case CatalogSourceFile:
		if c.CatalogPath == "" {
			return fmt.Errorf("CATALOG_PATH is required for the file catalog source")
		}
	case CatalogSourcePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres catalog source")
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be %q or %q, got %q", CatalogSourceFile, CatalogSourcePostgres, c.CatalogSource)
	}

	if c.Isolation != IsolationChannel && c.Isolation != IsolationUser {
		return fmt.Errorf("ISOLATION must be %q or %q, got %q", IsolationChannel, IsolationUser, c.Isolation)
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0, 1], got %v", c.MatchThreshold)
	}
	if c.SessionTTLMinutes < 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must not be negative")
	}
	if c.RateLimitPerUser <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_USER must be > 0")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be > 0")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.OperatorID == 0 {
		return fmt.Errorf("OPERATOR_TELEGRAM_ID must be set in production")
	}
	if c.CatalogSource == CatalogSourcePostgres && c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}

	return nil
}

// LoadDatabaseConfig reads only the database and environment settings, for
// tools that talk to the catalog database without running the bot.
func LoadDatabaseConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "astrobot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "astrobot_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		AppEnv:     getEnv("APP_ENV", "development"),
	}
	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	return cfg, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// GetSessionTTL returns zero when sessions never expire.
func (c *Config) GetSessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
