package model

// MealCandidate is one meal returned by an ingredient search.
type MealCandidate struct {
	ID        string `json:"idMeal"`
	Name      string `json:"strMeal"`
	Thumbnail string `json:"strMealThumb"`
}

// RecipeSummary is a recipe fetched for a single turn. It is never cached.
type RecipeSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
}
