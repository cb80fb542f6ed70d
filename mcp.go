package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/mcpserver"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

func mcpCmd(configFile *string) *cobra.Command {
	var userID, familyID string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the health tools to an MCP client over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configFile)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			opts := mcpserver.Options{Version: version}
			if userID != "" {
				opts.Caller = &tools.Caller{UserID: userID, FamilyID: familyID}
				logger.Info("MCP calls scoped to user", zap.String("user_id", userID))
			}

			logger.Info("Starting MCP server on stdio")
			return mcpserver.New(a.dispatcher, logger, opts).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "scope every tool call to this user")
	cmd.Flags().StringVar(&familyID, "family-id", "", "family the scoped user belongs to")
	return cmd
}
