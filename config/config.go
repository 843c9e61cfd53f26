package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey  string
	OpenAIAPIKey  string
	TelegramToken string

	LogLevel string

	// Postgres connection for the KV store; when DBHost is empty the bot
	// runs on the in-memory store instead.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Per-user admission control.
	RateLimitPolicy string // "fixed" or "sliding"
	RateLimitWindow time.Duration
	RateLimitMax    int // sliding window only

	// Cache TTLs, one per data kind.
	QuoteTTL   time.Duration
	HistoryTTL time.Duration
	SummaryTTL time.Duration
	ProfileTTL time.Duration

	// Upstream timeouts.
	QuoteTimeout   time.Duration
	SummaryTimeout time.Duration
	OverallTimeout time.Duration

	// Grace period granted to detached cache writes on shutdown.
	WriteGrace time.Duration

	HistoryDays int
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		TwelveAPIKey:  os.Getenv("TWELVE_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		RateLimitPolicy: getEnvWithDefault("RATE_LIMIT_POLICY", "fixed"),
		RateLimitWindow: getEnvDurationWithDefault("RATE_LIMIT_WINDOW", 60*time.Second),
		RateLimitMax:    getEnvIntWithDefault("RATE_LIMIT_MAX", 5),

		QuoteTTL:   getEnvDurationWithDefault("QUOTE_TTL", 5*time.Minute),
		HistoryTTL: getEnvDurationWithDefault("HISTORY_TTL", time.Hour),
		SummaryTTL: getEnvDurationWithDefault("SUMMARY_TTL", 8*time.Hour),
		ProfileTTL: getEnvDurationWithDefault("PROFILE_TTL", 72*time.Hour),

		QuoteTimeout:   getEnvDurationWithDefault("QUOTE_TIMEOUT", 10*time.Second),
		SummaryTimeout: getEnvDurationWithDefault("SUMMARY_TIMEOUT", 30*time.Second),
		OverallTimeout: getEnvDurationWithDefault("OVERALL_TIMEOUT", 45*time.Second),

		WriteGrace: getEnvDurationWithDefault("WRITE_GRACE", 5*time.Second),

		HistoryDays: getEnvIntWithDefault("HISTORY_DAYS", 30),
	}

	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
