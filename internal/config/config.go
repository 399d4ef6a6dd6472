// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the server, storage, similarity search, and advising behavior.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Directory for the SQLite database and vector store

	// Similarity Search Configuration
	GeminiAPIKey      string  // Gemini API key for embeddings (empty = BM25 only)
	SimilarityTopK    int     // Bounded top-K for requirement passage search
	SimilarityMinimum float64 // Minimum score to include a passage (0-1)

	// Advising Configuration
	MemoryWindow   int // Conversation memory entries kept per student
	PageSize       int // Rows per ResultSet page
	RecommendTopK  int // Ranked courses returned by the recommendation tool
	MaxTermCredits int // Credit cap considered by the recommendation tool

	// Rate Limiting (token bucket, per student)
	StudentRateBurst  float64 // Maximum burst tokens per student
	StudentRateRefill float64 // Tokens refilled per second

	// Error Tracking (optional)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
}

// Defaults for advising behavior. Values mirror the limits the advising
// data set was tuned for.
const (
	DefaultSimilarityTopK    = 5
	DefaultSimilarityMinimum = 0.25
	DefaultMemoryWindow      = 10
	DefaultPageSize          = 10
	DefaultRecommendTopK     = 8
	DefaultMaxTermCredits    = 21
)

// Load reads configuration from environment variables.
// It attempts to load a .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataDir: getEnv("DATA_DIR", "./data"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		SimilarityTopK:    getEnvInt("SIMILARITY_TOP_K", DefaultSimilarityTopK),
		SimilarityMinimum: getEnvFloat("SIMILARITY_MIN_SCORE", DefaultSimilarityMinimum),

		MemoryWindow:   getEnvInt("MEMORY_WINDOW", DefaultMemoryWindow),
		PageSize:       getEnvInt("PAGE_SIZE", DefaultPageSize),
		RecommendTopK:  getEnvInt("RECOMMEND_TOP_K", DefaultRecommendTopK),
		MaxTermCredits: getEnvInt("MAX_TERM_CREDITS", DefaultMaxTermCredits),

		StudentRateBurst:  getEnvFloat("STUDENT_RATE_BURST", 10),
		StudentRateRefill: getEnvFloat("STUDENT_RATE_REFILL", 0.5),

		SentryToken:       getEnv("SENTRY_TOKEN", ""),
		SentryHost:        getEnv("SENTRY_HOST", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.SimilarityTopK <= 0 {
		return errors.New("SIMILARITY_TOP_K must be positive")
	}
	if c.SimilarityMinimum < 0 || c.SimilarityMinimum > 1 {
		return errors.New("SIMILARITY_MIN_SCORE must be within [0, 1]")
	}
	if c.MemoryWindow <= 0 {
		return errors.New("MEMORY_WINDOW must be positive")
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.RecommendTopK <= 0 {
		return errors.New("RECOMMEND_TOP_K must be positive")
	}
	if c.MaxTermCredits <= 0 {
		return errors.New("MAX_TERM_CREDITS must be positive")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	return nil
}

// SQLitePath returns the path of the SQLite database file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "advisor.db")
}

// VectorStorePath returns the persistence directory for the vector store.
func (c *Config) VectorStorePath() string {
	return filepath.Join(c.DataDir, "chromem")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
