package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Document-AI service (validator / extractor / explainer / generator)
	DocAIURL    string
	DocAIAPIKey string

	// HTTP client
	HTTPTimeout time.Duration

	// Per-collaborator-call deadline. The upstream design had none and a
	// hung call would stall the run indefinitely; this bounds it.
	AICallTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache (memoized product-from-text generations)
	CacheTTL time.Duration

	// Session snapshot
	SnapshotPath string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DocAIURL:    getEnv("DOC_AI_URL", "http://localhost:8090"),
		DocAIAPIKey: getEnv("DOC_AI_API_KEY", ""),

		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		AICallTimeout: getEnvDuration("AI_CALL_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		SnapshotPath: getEnv("SNAPSHOT_PATH", "advisor-session.json"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
