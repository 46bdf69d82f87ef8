// Package config loads runtime settings from the environment, with an
// optional .env file for development setups.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultAPIURL  = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
)

// Config holds the settings the client needs to run.
type Config struct {
	// APIURL is the base URL of the platform API.
	APIURL string
	// DataDir holds the local session database.
	DataDir string
	// Timeout bounds a single API round trip.
	Timeout time.Duration
}

// DBPath returns the path of the local session database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "farmlink.db")
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIURL:  getEnv("FARMLINK_API_URL", DefaultAPIURL),
		DataDir: os.Getenv("FARMLINK_DATA_DIR"),
		Timeout: DefaultTimeout,
	}

	if cfg.DataDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving config dir: %w", err)
		}
		cfg.DataDir = filepath.Join(dir, "farmlink")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("creating data dir: %w", err)
	}

	if v := os.Getenv("FARMLINK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing FARMLINK_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// getEnv returns the value of key, or fallback when unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
