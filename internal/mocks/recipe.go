package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/mealplan-bot/backend/internal/model"
	"github.com/pageza/mealplan-bot/backend/internal/service"
)

// MockMealDBClient is a mock implementation of the recipe API client
type MockMealDBClient struct {
	mock.Mock
}

// FilterByIngredient mocks the FilterByIngredient method
func (m *MockMealDBClient) FilterByIngredient(ctx context.Context, ingredient string) ([]model.MealCandidate, error) {
	args := m.Called(ctx, ingredient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MealCandidate), args.Error(1)
}

// LookupMeal mocks the LookupMeal method
func (m *MockMealDBClient) LookupMeal(ctx context.Context, id string) (service.MealDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(service.MealDetail), args.Error(1)
}

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

// FindRecipe mocks the FindRecipe method
func (m *MockRecipeService) FindRecipe(ctx context.Context, ingredient string) (*model.RecipeSummary, error) {
	args := m.Called(ctx, ingredient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecipeSummary), args.Error(1)
}
