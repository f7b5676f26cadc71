package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Worker pool
	WorkerCount      int
	MaxQueueSize     int
	MaxConcurrentLLM int

	// Upload limits
	MaxUploadBytes int64

	// Separator geometry. Zero values fall back to the parser
	// defaults.
	SeparatorWidth float64
	WidthTolerance float64
	MaxRuleHeight  float64

	// Export labels
	Domain     string
	ManualName string

	// Artifacts
	CacheDir     string
	CacheEnabled bool
	OutputDir    string

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("MANUALQA_API_KEY"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4o"),

		WorkerCount:      envInt("WORKER_COUNT", 2),
		MaxQueueSize:     envInt("MAX_QUEUE_SIZE", 50),
		MaxConcurrentLLM: envInt("MAX_CONCURRENT_LLM", 5),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		SeparatorWidth: envFloat("SEPARATOR_WIDTH", 140),
		WidthTolerance: envFloat("SEPARATOR_WIDTH_TOLERANCE", 1),
		MaxRuleHeight:  envFloat("SEPARATOR_MAX_HEIGHT", 5),

		Domain:     envOr("EXPORT_DOMAIN", "Legal Reference"),
		ManualName: envOr("EXPORT_MANUAL_NAME", "Manual"),

		CacheDir:     envOr("CACHE_DIR", "cache"),
		CacheEnabled: envBool("CACHE_ENABLED", true),
		OutputDir:    envOr("OUTPUT_DIR", "output"),

		JobTTL: envDuration("JOB_TTL", 24*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxConcurrentLLM <= 0 {
		cfg.MaxConcurrentLLM = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("MANUALQA_API_KEY is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.WidthTolerance < 0 {
		return fmt.Errorf("SEPARATOR_WIDTH_TOLERANCE must not be negative")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
