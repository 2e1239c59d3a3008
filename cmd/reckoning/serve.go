package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reckoning/internal/broadcast"
	"reckoning/internal/config"
	"reckoning/internal/emergence"
	"reckoning/internal/evolution"
	"reckoning/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig("reckoning.yaml")
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	classifier, err := buildClassifier(ctx, cfg, true)
	if err != nil {
		return err
	}

	queue := evolution.NewQueue(db)
	observer := emergence.NewStreakObserver(db)
	emergenceSvc := emergence.NewService(db, observer, broadcast.NewHub(), logger)

	server := mcp.NewServer(db, classifier, queue, emergenceSvc, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
