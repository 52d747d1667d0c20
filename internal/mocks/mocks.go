package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/mealplan-bot/backend/internal/model"
)

// MockNutritionService is a mock implementation of the nutrition service
type MockNutritionService struct {
	mock.Mock
}

// Lookup mocks the Lookup method
func (m *MockNutritionService) Lookup(ctx context.Context, food string) (*model.NutritionMatch, error) {
	args := m.Called(ctx, food)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NutritionMatch), args.Error(1)
}
