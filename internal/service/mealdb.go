package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pageza/mealplan-bot/backend/internal/model"
)

// maxMealIngredients is the number of strIngredientN/strMeasureN pairs TheMealDB returns
const maxMealIngredients = 20

// APIError describes a failed call to the recipe API
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mealdb %s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("mealdb %s: %s", e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the call failed because its deadline passed
func (e *APIError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}

// MealDetail is the raw meal object from lookup.php. Values are strings or null.
type MealDetail map[string]any

// String returns a trimmed field value, treating null and non-strings as empty
func (m MealDetail) String(field string) string {
	s, _ := m[field].(string)
	return strings.TrimSpace(s)
}

// Summary converts the raw meal into a RecipeSummary
func (m MealDetail) Summary() *model.RecipeSummary {
	summary := &model.RecipeSummary{
		ID:           m.String("idMeal"),
		Title:        m.String("strMeal"),
		Instructions: m.String("strInstructions"),
	}
	for i := 1; i <= maxMealIngredients; i++ {
		n := strconv.Itoa(i)
		ingredient := m.String("strIngredient" + n)
		if ingredient == "" {
			continue
		}
		line := strings.TrimSpace(m.String("strMeasure"+n) + " " + ingredient)
		summary.Ingredients = append(summary.Ingredients, line)
	}
	return summary
}

// MealDBClient calls TheMealDB JSON API
type MealDBClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMealDBClient creates a client for the API rooted at baseURL.
// Timeouts come from the caller's context.
func NewMealDBClient(baseURL string, httpClient *http.Client) *MealDBClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &MealDBClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type mealsEnvelope struct {
	Meals json.RawMessage `json:"meals"`
}

// FilterByIngredient lists meals that use ingredient
func (c *MealDBClient) FilterByIngredient(ctx context.Context, ingredient string) ([]model.MealCandidate, error) {
	var candidates []model.MealCandidate
	if err := c.getMeals(ctx, "filter.php", ingredient, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// LookupMeal fetches the full meal record. It returns nil, nil when the id is unknown.
func (c *MealDBClient) LookupMeal(ctx context.Context, id string) (MealDetail, error) {
	var meals []MealDetail
	if err := c.getMeals(ctx, "lookup.php", id, &meals); err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, nil
	}
	return meals[0], nil
}

// getMeals performs GET endpoint?i=param and decodes the "meals" array into out.
// A null or non-array "meals" value leaves out empty.
func (c *MealDBClient) getMeals(ctx context.Context, endpoint, param string, out any) error {
	u := c.baseURL + "/" + endpoint + "?" + url.Values{"i": {param}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &APIError{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Endpoint: endpoint, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	var env mealsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "invalid JSON", Cause: err}
	}

	trimmed := strings.TrimSpace(string(env.Meals))
	if !strings.HasPrefix(trimmed, "[") {
		return nil
	}
	if err := json.Unmarshal(env.Meals, out); err != nil {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "unexpected meals payload", Cause: err}
	}
	return nil
}
