package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/api"
	"fintrack/internal/form"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

func newRegisterCommand(app *App) *cobra.Command {
	var draft form.RegisterDraft

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Local preconditions never reach the network.
			if err := draft.Validate(); err != nil {
				return err
			}

			resp, err := app.Client.Register(cmd.Context(), api.RegisterRequest{
				Username: draft.Username,
				Email:    draft.Email,
				Password: draft.Password,
			})
			if err != nil {
				return err
			}

			app.Logger.InfoContext(cmd.Context(), "Account registered",
				log.FieldOperation, log.OpRegister)
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful! Please log in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.Username, "username", "", "account username")
	cmd.Flags().StringVar(&draft.Email, "email", "", "account email")
	cmd.Flags().StringVar(&draft.Password, "password", "", "account password")
	cmd.Flags().StringVar(&draft.ConfirmPassword, "confirm-password", "", "password confirmation")

	return cmd
}

func newLoginCommand(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("%w: email and password are required", form.ErrValidation)
			}

			resp, err := app.Client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			// Credential and user id are written in one transaction so a
			// crash can never leave half a session behind.
			if err := app.Session.Set(cmd.Context(), session.Session{
				Credential: resp.AccessToken,
				UserID:     resp.UserID,
			}); err != nil {
				return fmt.Errorf("store session: %w", err)
			}

			app.Logger.InfoContext(cmd.Context(), "Logged in",
				log.FieldOperation, log.OpLogin,
				log.FieldUserID, resp.UserID)
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}

			app.Logger.InfoContext(cmd.Context(), "Logged out",
				log.FieldOperation, log.OpLogout)
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
