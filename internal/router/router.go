package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/mealplan-bot/backend/internal/api"
	"github.com/pageza/mealplan-bot/backend/internal/middleware"
	"github.com/pageza/mealplan-bot/backend/internal/service"
)

// Options holds what the router needs. Nil TokenValidator or Limiter turns that check off.
type Options struct {
	Dispatcher     *service.Dispatcher
	Nutrition      service.INutritionService
	Recipes        service.IRecipeService
	TokenValidator middleware.TokenValidator
	Limiter        middleware.Limiter
	CORSOrigins    []string
}

// SetupRouter configures the application routes
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(opts.CORSOrigins),
	)

	router.GET("/health", api.HealthCheck)

	var limit []gin.HandlerFunc
	if opts.Limiter != nil {
		limit = append(limit, middleware.RateLimit(opts.Limiter, middleware.SenderOrIP))
	}

	// Auth runs first so the limiter can key on the token's sender
	var webhook []gin.HandlerFunc
	if opts.TokenValidator != nil {
		webhook = append(webhook, middleware.AuthMiddleware(opts.TokenValidator))
	}
	webhook = append(webhook, limit...)

	api.NewActionHandler(opts.Dispatcher).RegisterRoutes(router, webhook...)

	v1 := router.Group("/api/v1")
	v1.Use(limit...)
	api.NewLookupHandler(opts.Nutrition, opts.Recipes).RegisterRoutes(v1)

	return router
}
