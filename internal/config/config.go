package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config contains application configuration.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimezone string

	DBConnectAttempts int
	DBConnectDelay    time.Duration

	Port         string
	LogFile      string // empty logs to stderr
	LogLevel     string
	SeedFixtures bool

	CORSAllowedOrigins []string
}

// Load reads configuration from .env (if present) and environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	cfg := Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "pipeline"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimezone: getEnv("DB_TIMEZONE", "UTC"),
		Port:       getEnv("PORT", "8080"),
		LogFile:    getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.DBConnectAttempts, err = strconv.Atoi(getEnv("DB_CONNECT_ATTEMPTS", "10")); err != nil || cfg.DBConnectAttempts < 1 {
		return Config{}, fmt.Errorf("DB_CONNECT_ATTEMPTS must be a positive integer")
	}
	if cfg.DBConnectDelay, err = time.ParseDuration(getEnv("DB_CONNECT_DELAY", "2s")); err != nil {
		return Config{}, fmt.Errorf("DB_CONNECT_DELAY: %w", err)
	}
	if cfg.SeedFixtures, err = strconv.ParseBool(getEnv("SEED_FIXTURES", "true")); err != nil {
		return Config{}, fmt.Errorf("SEED_FIXTURES: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// DSN builds the Postgres data source name.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	)
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}
