package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/dashboard"
)

func newDashboardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show transactions, spending by category, and monthly trend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RequireSession(); err != nil {
				return err
			}

			agg := dashboard.NewAggregator(app.Client, app.Session, app.Logger)
			agg.Load(cmd.Context(), app.Session.UserID())

			renderDashboard(cmd, agg.Snapshot())
			return nil
		},
	}
}

// renderDashboard prints all three sections. A failed section shows its
// error inline without hiding the others.
func renderDashboard(cmd *cobra.Command, snap dashboard.Snapshot) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Recent Transactions")
	switch {
	case snap.Transactions.Err != nil:
		fmt.Fprintf(out, "  unavailable: %v\n", snap.Transactions.Err)
	case len(snap.Transactions.Data) == 0:
		fmt.Fprintln(out, "  no transactions yet")
	default:
		w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  DATE\tCATEGORY\tDESCRIPTION\tAMOUNT")
		for _, tx := range snap.Transactions.Data {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%.2f\n",
				tx.Date.Format("2006-01-02"), tx.Category, tx.Description, tx.Amount)
		}
		w.Flush()
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Spending by Category")
	switch {
	case snap.Categories.Err != nil:
		fmt.Fprintf(out, "  unavailable: %v\n", snap.Categories.Err)
	case len(snap.Categories.Data) == 0:
		fmt.Fprintln(out, "  no data")
	default:
		for _, agg := range snap.Categories.Data {
			fmt.Fprintf(out, "  %-16s %.2f\n", agg.Category, agg.Amount)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Monthly Trend")
	switch {
	case snap.Trend.Err != nil:
		fmt.Fprintf(out, "  unavailable: %v\n", snap.Trend.Err)
	case len(snap.Trend.Data) == 0:
		fmt.Fprintln(out, "  no data")
	default:
		for _, point := range snap.Trend.Data {
			fmt.Fprintf(out, "  %04d-%02d  %.2f\n", point.Year, point.Month, point.Amount)
		}
	}
}
