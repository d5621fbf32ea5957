package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func newPredictCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Query the spending prediction models",
	}
	cmd.AddCommand(newPredictCategoryCommand(app))
	cmd.AddCommand(newPredictNextMonthCommand(app))
	return cmd
}

func newPredictCategoryCommand(app *App) *cobra.Command {
	var (
		amount  string
		dateStr string
	)

	cmd := &cobra.Command{
		Use:   "category",
		Short: "Suggest a category for an amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RequireSession(); err != nil {
				return err
			}

			value, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}

			var date *time.Time
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
				}
				date = &parsed
			}

			// The classifier expects absolute values; sign carries no
			// signal for category prediction.
			pred, err := app.Client.PredictCategory(cmd.Context(), math.Abs(value), date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Suggested category: %s\n", pred.PredictedCategory)
			for _, entry := range pred.All {
				fmt.Fprintf(out, "  %-16s %.0f%%\n", entry.Category, entry.Probability*100)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount")
	cmd.Flags().StringVar(&dateStr, "date", "", "transaction date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func newPredictNextMonthCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "next-month",
		Short: "Forecast next month's total spending",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RequireSession(); err != nil {
				return err
			}

			forecast, err := app.Client.PredictNextMonth(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Predicted spending next month: %.2f\n", forecast.PredictedAmount)
			fmt.Fprintf(out, "Confidence interval: %.2f - %.2f\n", forecast.ConfidenceMin, forecast.ConfidenceMax)
			return nil
		},
	}
}
