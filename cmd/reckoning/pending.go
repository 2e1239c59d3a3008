package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reckoning/internal/config"
	"reckoning/internal/evolution"
)

func pendingCmd() *cobra.Command {
	var gameID string
	var status string
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List queued evolution proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == "" {
				return fmt.Errorf("--game is required")
			}
			return runPending(gameID, status)
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "Game id")
	cmd.Flags().StringVar(&status, "status", "", "Status filter: pending (default), approved, edited, refused, or all")
	return cmd
}

func runPending(gameID, status string) error {
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

	queue := evolution.NewQueue(db)

	var records []evolution.PendingEvolution
	if status == "all" {
		records, err = queue.FindByGame(ctx, gameID)
	} else {
		records, err = queue.FindPending(ctx, gameID, evolution.Status(status))
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "No proposals found.")
		return nil
	}

	for _, record := range records {
		switch record.Type {
		case evolution.RelationshipChange:
			fmt.Fprintf(os.Stdout, "%s  turn %d  [%s]  %s: %s -> %s %s %.2f -> %.2f\n",
				record.ID, record.Turn, record.Status, record.Type,
				record.EntityID, record.TargetID, record.Dimension, record.OldValue, record.NewValue)
		default:
			fmt.Fprintf(os.Stdout, "%s  turn %d  [%s]  %s: %s %q\n",
				record.ID, record.Turn, record.Status, record.Type, record.EntityID, record.Trait)
		}
		if record.Reason != "" {
			fmt.Fprintf(os.Stdout, "    reason: %s\n", record.Reason)
		}
	}
	return nil
}
