package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/form"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/prediction"
)

func newAddCommand(app *App) *cobra.Command {
	var (
		amount      string
		category    string
		description string
		pick        int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new transaction",
		Long: `Record a new transaction. When --category is omitted the amount is
sent to the category classifier and the suggestion ranked at --pick
(default: the top one) is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RequireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if _, err := core.ParseAmount(amount); err != nil {
				return err
			}

			changes := make(chan prediction.Snapshot, 16)
			fetcher := prediction.NewFetcher(app.Client, app.Logger, func(s prediction.Snapshot) {
				changes <- s
			})

			var notifier form.Notifier
			if app.Config.NotifierEnabled() {
				nc, err := notify.NewClient(app.Config.AMQPURL, app.Config.AMQPExchange, app.Config.AMQPQueue, app.Logger)
				if err != nil {
					app.Logger.Warn("Event publishing disabled", log.FieldError, err)
				} else {
					defer nc.Close()
					notifier = nc
				}
			}

			agg := dashboard.NewAggregator(app.Client, app.Session, app.Logger)
			ctrl := form.NewController(app.Client, app.Session, agg, fetcher, notifier, app.Logger)

			ctrl.Open()
			if err := ctrl.UpdateField(ctx, form.FieldAmount, amount); err != nil {
				return err
			}
			if err := ctrl.UpdateField(ctx, form.FieldDescription, description); err != nil {
				return err
			}

			if category == "" {
				suggested, err := awaitSuggestion(cmd, changes, pick)
				if err != nil {
					return err
				}
				category = suggested
			}
			if err := ctrl.SelectCategory(category); err != nil {
				return err
			}

			if err := ctrl.Submit(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Transaction added.")
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount (negative for expenses)")
	cmd.Flags().StringVar(&category, "category", "", "category (omit to use the classifier's suggestion)")
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	cmd.Flags().IntVar(&pick, "pick", 0, "which ranked suggestion to use when --category is omitted")
	cmd.MarkFlagRequired("amount")

	return cmd
}

// awaitSuggestion blocks until the prediction fetcher reaches a terminal
// state, prints the ranked candidates, and returns the picked one.
func awaitSuggestion(cmd *cobra.Command, changes <-chan prediction.Snapshot, pick int) (string, error) {
	timeout := time.After(30 * time.Second)
	for {
		select {
		case snap := <-changes:
			switch snap.State {
			case prediction.StateSuccess:
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Suggested categories:")
				for i, entry := range snap.Prediction.All {
					fmt.Fprintf(out, "  [%d] %-16s %.0f%%\n", i, entry.Category, entry.Probability*100)
				}
				if pick < 0 || pick >= len(snap.Prediction.All) {
					return "", fmt.Errorf("no suggestion at rank %d", pick)
				}
				return snap.Prediction.All[pick].Category, nil
			case prediction.StateError:
				return "", fmt.Errorf("cannot suggest a category: %w", snap.Err)
			case prediction.StateIdle:
				return "", fmt.Errorf("amount does not qualify for a suggestion; pass --category")
			}
		case <-timeout:
			return "", fmt.Errorf("timed out waiting for a category suggestion")
		case <-cmd.Context().Done():
			return "", cmd.Context().Err()
		}
	}
}
