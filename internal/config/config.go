package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort          int
	DatabasePath        string
	JWTSecret           string        // Secret key for signing session tokens
	JWTExpire           time.Duration // Lifetime of issued session tokens
	JWTCookieExpireDays int           // Lifetime of the token cookie, in days
	CORSAllowedOrigins  []string
	AppEnv              string // "development" or "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first, if present.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars take precedence anyway.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
	}

	expireStr := getEnv("JWT_EXPIRE", "24h")
	expire, err := time.ParseDuration(expireStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRE value %q: %w", expireStr, err)
	}

	cookieDaysStr := getEnv("JWT_COOKIE_EXPIRE", "7")
	cookieDays, err := strconv.Atoi(cookieDaysStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_COOKIE_EXPIRE value %q: %w", cookieDaysStr, err)
	}

	cfg := &Config{
		ServerPort:          port,
		DatabasePath:        getEnv("DATABASE_PATH", "./auth.db"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpire:           expire,
		JWTCookieExpireDays: cookieDays,
		CORSAllowedOrigins:  splitOrigins(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AppEnv:              getEnv("APP_ENV", "development"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret"
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
