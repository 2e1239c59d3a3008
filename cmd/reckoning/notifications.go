package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reckoning/internal/config"
)

func notificationsCmd() *cobra.Command {
	var gameID string
	var pendingOnly bool
	var limit int
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List emergence notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == "" {
				return fmt.Errorf("--game is required")
			}
			return runNotifications(gameID, pendingOnly, limit)
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "Game id")
	cmd.Flags().BoolVar(&pendingOnly, "pending-only", false, "Only unresolved notifications")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of notifications")
	return cmd
}

func runNotifications(gameID string, pendingOnly bool, limit int) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig("reckoning.yaml")
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	notifications, err := db.ListNotificationsByGame(ctx, gameID, pendingOnly, limit)
	if err != nil {
		return err
	}

	if len(notifications) == 0 {
		fmt.Fprintln(os.Stdout, "No notifications found.")
		return nil
	}

	for _, n := range notifications {
		fmt.Fprintf(os.Stdout, "%s  [%s]  %s/%s -> %s (%.2f)\n",
			n.ID, n.Status, n.Entity.Type, n.Entity.ID, n.EmergenceType, n.Confidence)
		if n.Reason != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", n.Reason)
		}
	}
	return nil
}
