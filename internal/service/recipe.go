package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/mealplan-bot/backend/internal/logger"
	"github.com/pageza/mealplan-bot/backend/internal/model"
)

// Fixed replies of the recipe action
const (
	MsgAskIngredient        = "Which ingredient?"
	MsgRecipeUnavailable    = "Recipe service unavailable."
	MsgNoRecipes            = "😕 I couldn't find any recipes using this ingredient. Try another ingredient?"
	MsgRecipeDetailsMissing = "Could not load recipe details."
)

// maxInstructionRunes caps the instructions shown in a reply
const maxInstructionRunes = 700

// RecipeService finds a recipe for an ingredient with two calls to the recipe API:
// an ingredient search, then a detail lookup of the first candidate.
type RecipeService struct {
	client  IMealDBClient
	timeout time.Duration
}

// NewRecipeService creates a RecipeService. Each remote call gets its own timeout.
func NewRecipeService(client IMealDBClient, timeout time.Duration) *RecipeService {
	return &RecipeService{client: client, timeout: timeout}
}

// FindRecipe returns the first recipe that uses ingredient. Results are never cached.
func (s *RecipeService) FindRecipe(ctx context.Context, ingredient string) (*model.RecipeSummary, error) {
	ingredient = strings.TrimSpace(ingredient)
	if ingredient == "" {
		return nil, ErrMissingSlot
	}

	candidates, err := s.search(ctx, ingredient)
	if err != nil {
		logCallFailure("recipe search failed", ingredient, err)
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	chosen := candidates[0]
	detail, err := s.lookup(ctx, chosen.ID)
	if err != nil {
		logCallFailure("recipe lookup failed", ingredient, err)
		return nil, fmt.Errorf("%w: %w", ErrDetailUnavailable, err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: meal %s not found", ErrDetailUnavailable, chosen.ID)
	}

	summary := detail.Summary()
	if summary.Title == "" {
		summary.Title = chosen.Name
	}
	if summary.ID == "" {
		summary.ID = chosen.ID
	}
	return summary, nil
}

func (s *RecipeService) search(ctx context.Context, ingredient string) ([]model.MealCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.FilterByIngredient(ctx, ingredient)
}

func (s *RecipeService) lookup(ctx context.Context, id string) (MealDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.LookupMeal(ctx, id)
}

func logCallFailure(msg, ingredient string, err error) {
	var apiErr *APIError
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &apiErr) && apiErr.Timeout())
	logger.Warn(msg,
		zap.String("ingredient", ingredient),
		zap.Bool("timeout", timeout),
		zap.Error(err),
	)
}

// RecipeMessage turns a FindRecipe outcome into the reply shown to the user
func RecipeMessage(summary *model.RecipeSummary, err error) string {
	switch {
	case errors.Is(err, ErrMissingSlot):
		return MsgAskIngredient
	case errors.Is(err, ErrNoCandidates):
		return MsgNoRecipes
	case errors.Is(err, ErrDetailUnavailable):
		return MsgRecipeDetailsMissing
	case err != nil || summary == nil:
		return MsgRecipeUnavailable
	}
	return FormatRecipe(summary)
}

// FormatRecipe renders a recipe as title, ingredient list and truncated instructions
func FormatRecipe(r *model.RecipeSummary) string {
	var b strings.Builder
	b.WriteString("🍽️ ")
	b.WriteString(r.Title)
	b.WriteString("\n\nIngredients:\n")
	for i, line := range r.Ingredients {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(line)
	}
	b.WriteString("\n\nInstructions:\n")
	b.WriteString(truncateRunes(r.Instructions, maxInstructionRunes))
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
