package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/mealplan-bot/backend/config"
	"github.com/pageza/mealplan-bot/backend/internal/database"
	"github.com/pageza/mealplan-bot/backend/internal/logger"
	"github.com/pageza/mealplan-bot/backend/internal/middleware"
	"github.com/pageza/mealplan-bot/backend/internal/model"
	"github.com/pageza/mealplan-bot/backend/internal/service"
)

// app holds the services built from one configuration
type app struct {
	cfg        *config.Config
	nutrition  *service.NutritionService
	recipes    *service.RecipeService
	dispatcher *service.Dispatcher
	redis      *redis.Client
}

// loadConfig reads configuration and sets up logging for the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Environment.IsProduction()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.Config) *app {
	nutrition := service.NewNutritionService(datasetLoader(cfg), cfg.NutritionMatchThreshold)
	recipes := service.NewRecipeService(service.NewMealDBClient(cfg.MealDBBaseURL, &http.Client{}), cfg.RecipeTimeout)
	return &app{
		cfg:        cfg,
		nutrition:  nutrition,
		recipes:    recipes,
		dispatcher: service.NewDispatcher(service.DefaultActions(nutrition, recipes)...),
	}
}

// datasetLoader reads the nutrition CSV from disk, or from S3 for s3:// sources
func datasetLoader(cfg *config.Config) service.DatasetLoader {
	return func(ctx context.Context) ([]model.NutritionRecord, error) {
		var opener database.ObjectOpener
		if strings.HasPrefix(cfg.NutritionDataset, "s3://") {
			s3cfg, err := config.NewS3Config(ctx, cfg.AWSRegion)
			if err != nil {
				return nil, err
			}
			opener = s3cfg
		}
		records, _, err := database.LoadNutritionDataset(ctx, cfg.NutritionDataset, opener)
		return records, err
	}
}

// limiter picks Redis when configured and reachable, otherwise an in-process limiter.
// A zero RateLimit disables limiting.
func (a *app) limiter(ctx context.Context) middleware.Limiter {
	if a.cfg.RateLimit <= 0 {
		return nil
	}
	rlCfg := middleware.RateLimitConfig{
		Limit:     a.cfg.RateLimit,
		Window:    a.cfg.RateLimitWindow,
		KeyPrefix: "rate_limit:mealbot",
	}
	if a.cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, a.cfg.RedisURL)
		if err == nil {
			a.redis = client
			return middleware.NewRedisLimiter(client, rlCfg)
		}
		logger.Warn("redis unavailable, using in-process rate limiting", zap.Error(err))
	}
	return middleware.NewLocalLimiter(rlCfg)
}

// tokenValidator returns nil when no shared secret is configured
func (a *app) tokenValidator() middleware.TokenValidator {
	if a.cfg.ActionTokenSecret == "" {
		return nil
	}
	return service.NewTokenService(a.cfg.ActionTokenSecret)
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	logger.Sync()
}
