package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Processing ProcessingConfig
	Currency   CurrencyConfig
	Classifier ClassifierConfig
	Budget     BudgetConfig
}

// ProcessingConfig bounds batch processing cost
type ProcessingConfig struct {
	ChunkSize   int // rows per chunk
	MaxRows     int // batch-wide row cap, rejected wholesale when exceeded
	Workers     int // concurrent chunk workers
	MaxPDFPages int // text extraction page cap
	MaxFileSize int64
}

type CurrencyConfig struct {
	BaseCurrency    string
	RateURL         string
	RateTimeout     time.Duration
	RateTTL         time.Duration
	RatePerSecond   int
	FrequencyWeight float64 // primary-currency vote: frequency share weight
	ValueWeight     float64 // primary-currency vote: absolute-value share weight
}

type ClassifierConfig struct {
	ModelPath           string
	ConfidenceThreshold float64
}

type BudgetConfig struct {
	// Percentages overrides the standard per-category income shares when set.
	Percentages map[string]float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Processing: ProcessingConfig{
			ChunkSize:   getEnvAsInt("PROCESSING_CHUNK_SIZE", 1000),
			MaxRows:     getEnvAsInt("PROCESSING_MAX_ROWS", 10000),
			Workers:     getEnvAsInt("PROCESSING_WORKERS", 4),
			MaxPDFPages: getEnvAsInt("PROCESSING_MAX_PDF_PAGES", 10),
			MaxFileSize: int64(getEnvAsInt("PROCESSING_MAX_FILE_BYTES", 16*1024*1024)),
		},
		Currency: CurrencyConfig{
			BaseCurrency:    getEnv("CURRENCY_BASE", "USD"),
			RateURL:         getEnv("CURRENCY_RATE_URL", "https://api.exchangerate.host"),
			RateTimeout:     getEnvAsDuration("CURRENCY_RATE_TIMEOUT", 10*time.Second),
			RateTTL:         getEnvAsDuration("CURRENCY_RATE_TTL", time.Hour),
			RatePerSecond:   getEnvAsInt("CURRENCY_RATE_LIMIT_PER_SECOND", 5),
			FrequencyWeight: getEnvAsFloat("CURRENCY_VOTE_FREQUENCY_WEIGHT", 0.7),
			ValueWeight:     getEnvAsFloat("CURRENCY_VOTE_VALUE_WEIGHT", 0.3),
		},
		Classifier: ClassifierConfig{
			ModelPath:           getEnv("CLASSIFIER_MODEL_PATH", "models/categorization.bleve"),
			ConfidenceThreshold: getEnvAsFloat("CLASSIFIER_CONFIDENCE_THRESHOLD", 0.4),
		},
		Budget: BudgetConfig{
			Percentages: getEnvAsPercentMap("BUDGET_PERCENTAGES"),
		},
	}

	if cfg.Processing.ChunkSize <= 0 {
		return nil, fmt.Errorf("PROCESSING_CHUNK_SIZE must be positive, got %d", cfg.Processing.ChunkSize)
	}
	if cfg.Processing.Workers <= 0 {
		return nil, fmt.Errorf("PROCESSING_WORKERS must be positive, got %d", cfg.Processing.Workers)
	}
	if cfg.Processing.MaxRows < cfg.Processing.ChunkSize {
		return nil, fmt.Errorf("PROCESSING_MAX_ROWS (%d) must be at least the chunk size (%d)",
			cfg.Processing.MaxRows, cfg.Processing.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsPercentMap parses "food=0.15,transport=0.10" style overrides.
// Malformed entries are skipped.
func getEnvAsPercentMap(key string) map[string]float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		share, err := strconv.ParseFloat(value, 64)
		if err != nil || share <= 0 || share >= 1 {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(name))] = share
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
