package service

import (
	"context"

	"github.com/pageza/mealplan-bot/backend/internal/model"
)

// IMealDBClient is the remote recipe API
type IMealDBClient interface {
	FilterByIngredient(ctx context.Context, ingredient string) ([]model.MealCandidate, error)
	LookupMeal(ctx context.Context, id string) (MealDetail, error)
}

// INutritionService defines nutrition lookups
type INutritionService interface {
	Lookup(ctx context.Context, food string) (*model.NutritionMatch, error)
}

// IRecipeService defines recipe lookups
type IRecipeService interface {
	FindRecipe(ctx context.Context, ingredient string) (*model.RecipeSummary, error)
}
