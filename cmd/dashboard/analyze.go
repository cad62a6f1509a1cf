package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mohamedkhairy/commodity-dashboard/internal/dashboard"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the analysis table as JSON",
	Long:  "Load the input tables once, compute the analysis table at a reference date and print it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dateFlag, _ := cmd.Flags().GetString("date")
		sectors, _ := cmd.Flags().GetStringSlice("sector")
		commodities, _ := cmd.Flags().GetStringSlice("commodity")
		summary, _ := cmd.Flags().GetBool("summary")

		query := dashboard.AnalysisQuery{
			Sectors:     sectors,
			Commodities: commodities,
		}
		if dateFlag = strings.TrimSpace(dateFlag); dateFlag != "" {
			ref, err := models.ParseDay(dateFlag)
			if err != nil {
				return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateFlag)
			}
			query.Date = ref
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		if summary {
			result, err := a.service.Summary(ctx, query)
			if err != nil {
				return err
			}
			return encoder.Encode(result)
		}

		result, err := a.service.Analyze(ctx, query)
		if err != nil {
			return err
		}
		return encoder.Encode(result)
	},
}

func init() {
	analyzeCmd.Flags().String("date", "", "reference date YYYY-MM-DD (default: latest price date)")
	analyzeCmd.Flags().StringSlice("sector", nil, "sectors to include (repeatable or comma separated)")
	analyzeCmd.Flags().StringSlice("commodity", nil, "commodities to include (repeatable or comma separated)")
	analyzeCmd.Flags().Bool("summary", false, "print the key market metrics instead of the table")
}
