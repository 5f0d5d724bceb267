// Package config loads runtime settings from the environment. A .env file
// in the working directory is honored when present.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting. Commands validate only the
// settings they actually use.
type Config struct {
	RegulationsAPIKey string
	BlueskyHost       string
	BlueskyHandle     string
	BlueskyPassword   string
	DBPath            string
	Port              string
}

// Load reads configuration from the environment, loading .env first when it
// exists. Missing optional values fall back to defaults.
func Load() *Config {
	// Absent .env is the normal production case.
	_ = godotenv.Load()

	return &Config{
		RegulationsAPIKey: os.Getenv("REGULATIONS_API_KEY"),
		BlueskyHost:       os.Getenv("BLUESKY_HOST"),
		BlueskyHandle:     os.Getenv("BLUESKY_HANDLE"),
		BlueskyPassword:   os.Getenv("BLUESKY_APP_PASSWORD"),
		DBPath:            getenvDefault("REGWATCH_DB", "data/regwatch.db"),
		Port:              getenvDefault("PORT", "8080"),
	}
}

// RequireAPIKey errors unless a Regulations.gov API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.RegulationsAPIKey == "" {
		return fmt.Errorf("REGULATIONS_API_KEY environment variable is required")
	}
	return nil
}

// RequireBluesky errors unless Bluesky credentials are configured.
func (c *Config) RequireBluesky() error {
	if c.BlueskyHandle == "" || c.BlueskyPassword == "" {
		return fmt.Errorf("BLUESKY_HANDLE and BLUESKY_APP_PASSWORD environment variables are required")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
