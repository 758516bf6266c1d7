// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration, for both the API server and
// the journaling client.
type Config struct {
	// Server settings.
	Port         string
	FrontendURL  string
	DBPath       string
	MaxBodyBytes int64

	// AI companion settings.
	AnthropicAPIKey string
	AnthropicModel  string
	UseMockAI       bool

	// Client storage settings. HostedDBPath being set selects the hosted
	// backend; otherwise the HTTP API is used with device-local fallback.
	APIBaseURL   string
	HostedDBPath string
	StateDir     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/mindspace.db"),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1_000_000)),
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", ""),
		UseMockAI:       getEnvBool("USE_MOCK_AI", true),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8000/api"),
		HostedDBPath:    getEnv("HOSTED_DB_PATH", ""),
		StateDir:        getEnv("STATE_DIR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be > 0")
	}
	return nil
}

// AIEnabled reports whether a real Anthropic key is configured.
func (c *Config) AIEnabled() bool {
	return !c.UseMockAI && c.AnthropicAPIKey != ""
}

// HostedConfigured reports whether the hosted backend is configured. The
// backend choice is resolved once at startup, not re-checked per call.
func (c *Config) HostedConfigured() bool {
	return c.HostedDBPath != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
