// Package config reads runtime settings from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Data     DataConfig
	Tune     TuneConfig
	LogLevel string
}

// DatabaseConfig holds trial store connection settings. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL string
}

// DataConfig holds input data settings
type DataConfig struct {
	File  string
	Sheet string
}

// TuneConfig holds search execution settings
type TuneConfig struct {
	Workers int
	Seed    int64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	workers, err := getEnvIntOrDefault("TUNE_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("TUNE_WORKERS must be positive, got %d", workers)
	}

	seed, err := getEnvInt64OrDefault("SEED", 1)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Data: DataConfig{
			File:  os.Getenv("DATA_FILE"),
			Sheet: getEnvOrDefault("DATA_SHEET", "Sheet1"),
		},
		Tune:     TuneConfig{Workers: workers, Seed: seed},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}, nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

func getEnvInt64OrDefault(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}
