package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pageza/mealplan-bot/backend/internal/logger"
	"github.com/pageza/mealplan-bot/backend/internal/router"
	"github.com/pageza/mealplan-bot/backend/internal/server"
)

var (
	servePort    string
	servePreload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the action server",
	Long:  `Start an HTTP server exposing the action webhook and the nutrition and recipe lookups.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides SERVER_PORT)")
	serveCmd.Flags().BoolVar(&servePreload, "preload", true, "Load the nutrition dataset before accepting requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.ServerPort = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	defer a.Close()

	if servePreload {
		// The server still starts; lookups retry the load and report the dataset as unavailable until it succeeds
		if err := a.nutrition.Preload(ctx); err != nil {
			logger.Warn("nutrition dataset not loaded", zap.String("source", cfg.NutritionDataset), zap.Error(err))
		}
	}

	handler := router.SetupRouter(router.Options{
		Dispatcher:     a.dispatcher,
		Nutrition:      a.nutrition,
		Recipes:        a.recipes,
		TokenValidator: a.tokenValidator(),
		Limiter:        a.limiter(ctx),
		CORSOrigins:    cfg.CORSAllowedOrigins,
	})

	logger.Info("starting action server",
		zap.String("environment", string(cfg.Environment)),
		zap.Strings("actions", a.dispatcher.Names()),
	)
	return server.New(cfg.Addr(), handler).Run(ctx)
}
