package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/export/sheets"
)

func newExportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export all transactions to Google Sheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RequireSession(); err != nil {
				return err
			}
			if !app.Config.ExportEnabled() {
				return errors.New("export not configured (set GOOGLE_SPREADSHEET_ID)")
			}
			ctx := cmd.Context()

			sheet, err := sheets.NewClient(ctx, app.Config.GoogleSpreadsheetID, app.Config.GoogleSheetName, app.Logger)
			if err != nil {
				return err
			}

			txs, err := app.Client.Transactions(ctx, app.Session.UserID())
			if err != nil {
				return err
			}

			rows, err := sheet.Export(ctx, txs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions.\n", rows)
			return nil
		},
	}
}
