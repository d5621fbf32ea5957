// Package cli wires the orchestration components into the fintrack
// command tree and consolidates the initialization every command shares:
// env file, logger, configuration, session store, gateway.
package cli

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"

	"fintrack/internal/api"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

// ErrLoginRequired gates protected commands. The CLI equivalent of a
// redirect to the login view.
var ErrLoginRequired = errors.New("not logged in (run 'fintrack login' first)")

// App holds the shared dependencies of all commands.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Session *session.Store
	Client  *api.Client
}

// NewApp loads the environment, configuration and session store, and
// builds the gateway. The .env file is optional.
func NewApp() (*App, error) {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := session.NewStore(cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, store, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Session: store,
		Client:  client,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.Session != nil {
		if err := a.Session.Close(); err != nil {
			a.Logger.Warn("Session store close failed", log.FieldError, err)
		}
	}
}

// RequireSession returns ErrLoginRequired when no credential is stored.
// Presence only: an expired credential still passes here and fails at the
// first gated call.
func (a *App) RequireSession() error {
	if !a.Session.IsAuthenticated() {
		return ErrLoginRequired
	}
	return nil
}
