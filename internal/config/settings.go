package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type ApplicationSettings struct {
	ClientID       string
	ClientSecret   string
	APIBaseURL     string
	RedirectURI    string
	ServerPort     string
	RedisURL       string
	RequestTimeout time.Duration
}

// LoadEnvironmentConfig reads settings from the environment, picking up a
// local .env file first when one exists.
func LoadEnvironmentConfig() *ApplicationSettings {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	return &ApplicationSettings{
		ClientID:       getEnvironmentVariable("CLIENT_ID", ""),
		ClientSecret:   getEnvironmentVariable("CLIENT_SECRET", ""),
		APIBaseURL:     getEnvironmentVariable("API_BASE_URL", "https://sandbox.dev.clover.com"),
		RedirectURI:    getEnvironmentVariable("REDIRECT_URI", "http://localhost:9999/auth/callback"),
		ServerPort:     getEnvironmentVariable("PORT", "9999"),
		RedisURL:       getEnvironmentVariable("REDIS_URL", "127.0.0.1:6379"),
		RequestTimeout: time.Duration(getIntegerEnvironmentVariable("REQUEST_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

func getEnvironmentVariable(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntegerEnvironmentVariable(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
