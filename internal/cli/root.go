package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the fintrack command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance tracker with ML-backed predictions",
		Long: `fintrack records transactions against a remote tracker service,
shows categorized spending breakdowns, and suggests a category for every
amount you type using the service's classifier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRegisterCommand(app))
	root.AddCommand(newLoginCommand(app))
	root.AddCommand(newLogoutCommand(app))
	root.AddCommand(newDashboardCommand(app))
	root.AddCommand(newAddCommand(app))
	root.AddCommand(newPredictCommand(app))
	root.AddCommand(newExportCommand(app))

	return root
}

// Execute builds the app and runs the command tree.
func Execute() error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	return NewRootCommand(app).Execute()
}
