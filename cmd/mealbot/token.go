package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/mealplan-bot/backend/internal/service"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [sender-id]",
	Short: "Issue a webhook bearer token",
	Long: `Issue a bearer token signed with ACTION_TOKEN_SECRET for the dialogue framework's action endpoint.
Without a sender id the token is valid for every conversation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime; 0 never expires")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ActionTokenSecret == "" {
		return errors.New("ACTION_TOKEN_SECRET is not set")
	}

	sender := ""
	if len(args) == 1 {
		sender = args[0]
	}
	token, err := service.NewTokenService(cfg.ActionTokenSecret).GenerateToken(sender, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
