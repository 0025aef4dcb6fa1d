package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Page watching
	WatchURL             string
	WatchInterval        time.Duration
	FetchTimeout         time.Duration
	FallbackPollSchedule string // cron expression for the safety-net poll

	// Pipeline tuning. The debounce window is deliberately configuration,
	// not contract; deployments tune it against page flakiness.
	DebounceInterval time.Duration

	// Classification backend
	ClassifierURL     string
	ClassifierTimeout time.Duration
	GeminiAPIKey      string

	// Analysis cache
	CacheTTL      time.Duration
	CacheCapacity int

	// Feature flags
	AutoExtract bool
	AutoUpload  bool

	// Storage configuration
	StorageBackend   string // "local" or "azure"
	StorageAccount   string
	StorageContainer string
	LocalStoragePath string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		WatchURL:             getEnv("WATCH_URL", ""),
		WatchInterval:        getDurationEnv("WATCH_INTERVAL", 30*time.Second),
		FetchTimeout:         getDurationEnv("FETCH_TIMEOUT", 20*time.Second),
		FallbackPollSchedule: getEnv("FALLBACK_POLL_SCHEDULE", "0 */5 * * * *"),

		DebounceInterval: getDurationEnv("DEBOUNCE_INTERVAL", 500*time.Millisecond),

		ClassifierURL:     getEnv("CLASSIFIER_URL", "http://127.0.0.1:8001"),
		ClassifierTimeout: getDurationEnv("CLASSIFIER_TIMEOUT", 30*time.Second),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),

		CacheTTL:      getDurationEnv("CACHE_TTL", 24*time.Hour),
		CacheCapacity: getIntEnv("CACHE_CAPACITY", 100),

		AutoExtract: getBoolEnv("AUTO_EXTRACT", true),
		AutoUpload:  getBoolEnv("AUTO_UPLOAD", true),

		StorageBackend:   getEnv("STORAGE_BACKEND", "local"),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "review-exports"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./data"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.WatchURL == "" {
		return fmt.Errorf("WATCH_URL is required")
	}

	if c.ClassifierURL == "" {
		return fmt.Errorf("CLASSIFIER_URL is required")
	}

	if c.StorageBackend != "local" && c.StorageBackend != "azure" {
		return fmt.Errorf("STORAGE_BACKEND must be 'local' or 'azure'")
	}

	if c.StorageBackend == "azure" && c.StorageAccount == "" {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
