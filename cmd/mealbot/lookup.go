package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/mealplan-bot/backend/internal/service"
)

var (
	lookupDataset   string
	lookupThreshold float64
	lookupTimeout   time.Duration
)

var nutritionCmd = &cobra.Command{
	Use:   "nutrition <food...>",
	Short: "Look up nutrition facts for a food",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNutrition,
}

var recipeCmd = &cobra.Command{
	Use:   "recipe <ingredient...>",
	Short: "Find a recipe that uses an ingredient",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecipe,
}

func init() {
	nutritionCmd.Flags().StringVar(&lookupDataset, "dataset", "", "Nutrition CSV path or s3:// URI (overrides NUTRITION_DATASET)")
	nutritionCmd.Flags().Float64Var(&lookupThreshold, "threshold", 0, "Minimum fuzzy match similarity (overrides NUTRITION_MATCH_THRESHOLD)")
	recipeCmd.Flags().DurationVar(&lookupTimeout, "timeout", 0, "Timeout per recipe API call (overrides RECIPE_TIMEOUT)")
	rootCmd.AddCommand(nutritionCmd, recipeCmd)
}

func runNutrition(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if lookupDataset != "" {
		cfg.NutritionDataset = lookupDataset
	}
	if lookupThreshold != 0 {
		if lookupThreshold < 0 || lookupThreshold > 1 {
			return fmt.Errorf("--threshold must be in (0, 1], got %v", lookupThreshold)
		}
		cfg.NutritionMatchThreshold = lookupThreshold
	}

	a := newApp(cfg)
	defer a.Close()

	match, err := a.nutrition.Lookup(cmd.Context(), strings.Join(args, " "))
	fmt.Fprintln(cmd.OutOrStdout(), service.NutritionMessage(match, err))
	return nil
}

func runRecipe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if lookupTimeout > 0 {
		cfg.RecipeTimeout = lookupTimeout
	}

	a := newApp(cfg)
	defer a.Close()

	summary, err := a.recipes.FindRecipe(cmd.Context(), strings.Join(args, " "))
	fmt.Fprintln(cmd.OutOrStdout(), service.RecipeMessage(summary, err))
	return nil
}
