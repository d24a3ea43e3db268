// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Uploads and frontend
	UploadDir string
	StaticDir string

	// QR decode proxy
	QREndpoint string
	QRTimeout  time.Duration

	// People seeded into an empty database on startup.
	SeedPeople []string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tripsplit.db"),
		UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
		StaticDir:    getEnv("STATIC_DIR", "./static"),
		QREndpoint:   getEnv("QR_API_URL", "https://api.qrserver.com/v1/read-qr-code/?outputformat=json"),
		QRTimeout:    getEnvDuration("QR_TIMEOUT", 10*time.Second),
		SeedPeople:   getEnvList("SEED_PEOPLE"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.QREndpoint != "" {
		if parsed, err := url.Parse(c.QREndpoint); err != nil {
			errors = append(errors, fmt.Sprintf("invalid QR API URL '%s': %v", c.QREndpoint, err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid QR API URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	}

	if c.QRTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid QR timeout %v: must be at least 1 second", c.QRTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
