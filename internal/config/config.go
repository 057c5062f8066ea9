// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL      string
	WebBaseURL      string
	DatabasePath    string
	CookiePath      string
	RefreshInterval time.Duration
	Enabled         bool
	Notifications   bool
}

// Default values
const (
	defaultRefreshInterval = 30 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		APIBaseURL:      getEnvString("AUGMENT_API_BASE_URL", APIBaseURL),
		WebBaseURL:      getEnvString("AUGMENT_WEB_BASE_URL", WebBaseURL),
		DatabasePath:    getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		CookiePath:      getEnvString("COOKIE_PATH", getDefaultCookiePath()),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		Enabled:         getEnvBool("REFRESH_ENABLED", true),
		Notifications:   getEnvBool("NOTIFICATIONS", true),
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure cookie directory exists so the file watcher has a parent to watch
	if err := ensureDir(filepath.Dir(cfg.CookiePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "augment-usage-tui", ".env"),
			filepath.Join(home, ".augment", ".env"),
		)
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usage.db"
	}
	return filepath.Join(home, ".config", "augment-usage-tui", "usage.db")
}

// getDefaultCookiePath returns the default path for the session cookie file.
func getDefaultCookiePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "augment-cookie"
	}
	return filepath.Join(home, ".config", "augment-usage-tui", "cookie")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
