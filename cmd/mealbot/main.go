// Package main provides the mealbot action server and its command line lookups.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pageza/mealplan-bot/backend/internal/api"
)

var rootCmd = &cobra.Command{
	Use:           "mealbot",
	Short:         "Meal planning assistant action server",
	Long:          "mealbot answers nutrition, recipe and meal plan questions for a dialogue framework, over a webhook or from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       api.Version,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
