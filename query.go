package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

func queryCmd(configFile *string) *cobra.Command {
	var (
		userID          string
		includeInsights bool
	)

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Answer one natural-language health question and print the JSON result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configFile)
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			raw, err := json.Marshal(tools.SearchHealthDataArgs{
				Query:           strings.Join(args, " "),
				UserID:          userID,
				IncludeInsights: &includeInsights,
			})
			if err != nil {
				return err
			}

			result, execErr := a.dispatcher.Execute(cmd.Context(), tools.ToolSearchHealthData, raw)
			if execErr != nil {
				result = tools.NewErrorPayload(tools.ToolSearchHealthData, execErr)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return execErr
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "user whose data is searched")
	cmd.Flags().BoolVar(&includeInsights, "include-insights", true, "include generated insights")
	return cmd
}
