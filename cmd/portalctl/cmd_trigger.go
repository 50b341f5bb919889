package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/voyager-portal/internal/backend"
	"github.com/AngelCh415/voyager-portal/internal/ingest"
	"github.com/AngelCh415/voyager-portal/internal/models"
)

var (
	triggerUser  int
	triggerItems []string
	triggerHours int
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Send a cart abandonment trigger to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if backendURL == "" {
			return errors.New("--backend or BACKEND_URL is required")
		}
		log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		cl := backend.NewClient(backendURL, ingest.NewHTTPClient(timeout), log, nil)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		resp, err := cl.TriggerCartAbandonment(ctx, models.CartAbandonmentTriggerRequest{
			UserID: triggerUser, CartItems: triggerItems, Hours: triggerHours,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "campaign %s %s\n", resp.CampaignID, resp.Status)
		return nil
	},
}

func init() {
	triggerCmd.Flags().IntVar(&triggerUser, "user", 12345, "User id")
	triggerCmd.Flags().StringSliceVar(&triggerItems, "item", []string{"Istanbul Hotel - 2 nights"}, "Cart item, repeatable")
	triggerCmd.Flags().IntVar(&triggerHours, "hours", 2, "Hours since abandonment")
}
