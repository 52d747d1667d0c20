package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CI", "ENV", "SERVER_HOST", "SERVER_PORT", "NUTRITION_DATASET", "NUTRITION_MATCH_THRESHOLD",
		"MEALDB_BASE_URL", "RECIPE_TIMEOUT", "REDIS_URL", "RATE_LIMIT", "RATE_LIMIT_WINDOW",
		"ACTION_TOKEN_SECRET", "AWS_REGION", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SECRETS_DIR", t.TempDir())
}

func TestLoadConfigWithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, DefaultServerHost, cfg.ServerHost)
	assert.Equal(t, DefaultServerPort, cfg.ServerPort)
	assert.Equal(t, DefaultDataset, cfg.NutritionDataset)
	assert.Equal(t, DefaultMatchThreshold, cfg.NutritionMatchThreshold)
	assert.Equal(t, DefaultMealDBBaseURL, cfg.MealDBBaseURL)
	assert.Equal(t, DefaultRecipeTimeout, cfg.RecipeTimeout)
	assert.Empty(t, cfg.ActionTokenSecret)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "0.0.0.0:5055", cfg.Addr())
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("NUTRITION_DATASET", "s3://nutrition/foods.csv")
	t.Setenv("NUTRITION_MATCH_THRESHOLD", "0.75")
	t.Setenv("MEALDB_BASE_URL", "http://mealdb.local/api/")
	t.Setenv("RECIPE_TIMEOUT", "3s")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("ACTION_TOKEN_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, ,http://frontend:5173")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "s3://nutrition/foods.csv", cfg.NutritionDataset)
	assert.Equal(t, 0.75, cfg.NutritionMatchThreshold)
	assert.Equal(t, "http://mealdb.local/api", cfg.MealDBBaseURL)
	assert.Equal(t, 3*time.Second, cfg.RecipeTimeout)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "test-secret", cfg.ActionTokenSecret)
	assert.Equal(t, []string{"http://localhost:5173", "http://frontend:5173"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigReadsSecretFile(t *testing.T) {
	clearEnv(t)
	dir := os.Getenv("SECRETS_DIR")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "action_token_secret"), []byte("from-file\n"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ActionTokenSecret)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad threshold", "NUTRITION_MATCH_THRESHOLD", "1.5"},
		{"unparsable threshold", "NUTRITION_MATCH_THRESHOLD", "high"},
		{"bad timeout", "RECIPE_TIMEOUT", "ten"},
		{"bad port", "SERVER_PORT", "http"},
		{"bad s3 uri", "NUTRITION_DATASET", "s3://bucket-only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestProductionRequiresTokenSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action_token_secret")

	t.Setenv("ACTION_TOKEN_SECRET", "prod-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Production, cfg.Environment)
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("Production"))
	assert.Equal(t, Test, ParseEnvironment("test"))
	assert.Equal(t, CI, ParseEnvironment(" ci "))
	assert.Equal(t, Development, ParseEnvironment(""))
	assert.Equal(t, Development, ParseEnvironment("staging"))

	assert.True(t, ParseEnvironment("PRODUCTION").IsProduction())
	assert.False(t, CI.IsProduction())
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://nutrition/data/foods.csv")
	require.NoError(t, err)
	assert.Equal(t, "nutrition", bucket)
	assert.Equal(t, "data/foods.csv", key)

	_, _, err = ParseS3URI("/local/foods.csv")
	assert.Error(t, err)

	_, _, err = ParseS3URI("s3://nutrition/")
	assert.Error(t, err)
}
