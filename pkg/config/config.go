// Package config loads server configuration from the environment, with an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the API server.
type Config struct {
	Port          int
	DBPath        string
	CORSOrigins   []string
	OverdueSweep  time.Duration
	SweepDisabled bool
}

// Load reads configuration from environment variables, loading a .env file
// first if one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnvInt("PORT", 8080),
		DBPath:        getEnvString("DB_PATH", "loanbook.db"),
		CORSOrigins:   splitOrigins(getEnvString("CORS_ORIGINS", "*")),
		OverdueSweep:  getEnvDuration("OVERDUE_SWEEP", time.Hour),
		SweepDisabled: getEnvBool("OVERDUE_SWEEP_DISABLED", false),
	}
}

func splitOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
