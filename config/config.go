package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultServerHost     = "0.0.0.0"
	DefaultServerPort     = "5055"
	DefaultDataset        = "resources/food_nutrition_dataset_kaggle.csv"
	DefaultMatchThreshold = 0.6
	DefaultMealDBBaseURL  = "https://www.themealdb.com/api/json/v1/1"
	DefaultRecipeTimeout  = 10 * time.Second
	DefaultRateLimit      = 30
	DefaultRateWindow     = time.Minute
)

// Config holds all configuration for the action server
type Config struct {
	Environment Environment

	// Server configuration
	ServerHost string `validate:"required"`
	ServerPort string `validate:"required,numeric"`

	// Nutrition dataset: a local path or an s3://bucket/key URI
	NutritionDataset        string  `validate:"required"`
	NutritionMatchThreshold float64 `validate:"gt=0,lte=1"`

	// Recipe API
	MealDBBaseURL string        `validate:"required,url"`
	RecipeTimeout time.Duration `validate:"gt=0"`

	// Rate limiting, backed by Redis when RedisURL is set
	RedisURL        string `validate:"omitempty,url"`
	RateLimit       int    `validate:"gte=0"`
	RateLimitWindow time.Duration

	// Shared secret for signed webhook calls; empty disables the check
	ActionTokenSecret string

	// Origins allowed to call the HTTP API from a browser; "*" allows any
	CORSAllowedOrigins []string

	AWSRegion string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	cfg := &Config{Environment: GetEnvironment()}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", cfg.Environment, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	cfg.ServerHost = getEnv("SERVER_HOST", DefaultServerHost)
	cfg.ServerPort = getEnv("SERVER_PORT", DefaultServerPort)
	cfg.NutritionDataset = getEnv("NUTRITION_DATASET", DefaultDataset)
	cfg.MealDBBaseURL = strings.TrimRight(getEnv("MEALDB_BASE_URL", DefaultMealDBBaseURL), "/")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	var err error
	if cfg.NutritionMatchThreshold, err = getFloat("NUTRITION_MATCH_THRESHOLD", DefaultMatchThreshold); err != nil {
		return err
	}
	if cfg.RecipeTimeout, err = getDuration("RECIPE_TIMEOUT", DefaultRecipeTimeout); err != nil {
		return err
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT", DefaultRateLimit); err != nil {
		return err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", DefaultRateWindow); err != nil {
		return err
	}

	// Secrets: environment variable first, then Docker secret file.
	// CI only ever uses environment variables.
	cfg.ActionTokenSecret = os.Getenv("ACTION_TOKEN_SECRET")
	if cfg.ActionTokenSecret == "" && cfg.Environment != CI {
		cfg.ActionTokenSecret = readSecret("action_token_secret")
	}

	return nil
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
