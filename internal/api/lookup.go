package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/mealplan-bot/backend/internal/middleware"
	"github.com/pageza/mealplan-bot/backend/internal/service"
	"github.com/pageza/mealplan-bot/backend/internal/types"
)

// LookupHandler exposes the nutrition and recipe lookups outside of a conversation
type LookupHandler struct {
	nutrition service.INutritionService
	recipes   service.IRecipeService
}

func NewLookupHandler(nutrition service.INutritionService, recipes service.IRecipeService) *LookupHandler {
	return &LookupHandler{nutrition: nutrition, recipes: recipes}
}

func (h *LookupHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/nutrition", h.Nutrition)
	router.GET("/recipes", h.Recipe)
}

// Nutrition answers GET /nutrition?food=
func (h *LookupHandler) Nutrition(c *gin.Context) {
	food := strings.TrimSpace(c.Query("food"))
	if food == "" {
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: "food query parameter is required"})
		return
	}

	match, err := h.nutrition.Lookup(c.Request.Context(), food)
	c.JSON(http.StatusOK, types.LookupResponse{Text: service.NutritionMessage(match, err)})
}

// Recipe answers GET /recipes?ingredient=
func (h *LookupHandler) Recipe(c *gin.Context) {
	ingredient := strings.TrimSpace(c.Query("ingredient"))
	if ingredient == "" {
		c.JSON(http.StatusBadRequest, middleware.ErrorResponse{Error: "ingredient query parameter is required"})
		return
	}

	summary, err := h.recipes.FindRecipe(c.Request.Context(), ingredient)
	c.JSON(http.StatusOK, types.LookupResponse{Text: service.RecipeMessage(summary, err)})
}
