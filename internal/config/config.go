package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the process-level settings for the composition root. The
// matching core itself takes everything through constructors.
type Config struct {
	ServiceName string
	Debug       bool
	LogLevel    string

	// StorageType selects the task repository: memory, file, or sqlite.
	StorageType string
	StoragePath string

	// Default matching limits, overridable per deployment.
	MaxResults    int
	MinConfidence int
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:   getEnv("TASKLENS_SERVICE_NAME", "tasklens"),
		Debug:         getEnvBool("TASKLENS_DEBUG", false),
		LogLevel:      getEnv("TASKLENS_LOG_LEVEL", "info"),
		StorageType:   getEnv("TASKLENS_STORAGE", "file"),
		StoragePath:   getEnv("TASKLENS_STORAGE_PATH", "."),
		MaxResults:    getEnvInt("TASKLENS_MAX_RESULTS", 10),
		MinConfidence: getEnvInt("TASKLENS_MIN_CONFIDENCE", 30),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
