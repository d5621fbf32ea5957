// Package session persists the client's credential and user id between
// runs and answers gated-access checks. The guard only checks presence;
// an expired credential is discovered when a gated call comes back
// rejected, never here.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	credentialKey = "credential"
	userIDKey     = "user_id"
)

var ErrIncompleteSession = errors.New("session requires both credential and user id")

// Session is the stored identity. A present credential implies a present
// UserID; Set enforces this by writing both in one transaction.
type Session struct {
	Credential string
	UserID     string
}

// Present reports whether the session carries an identity.
func (s Session) Present() bool {
	return s.Credential != "" && s.UserID != ""
}

type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the session database at dbPath
// and brings its schema up to date.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the stored session. A missing session is not an error; it
// comes back zero-valued.
func (s *Store) Get(ctx context.Context) (Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_values WHERE key IN (?, ?)`,
		credentialKey, userIDKey)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	defer rows.Close()

	var sess Session
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, fmt.Errorf("scan session row: %w", err)
		}
		switch key {
		case credentialKey:
			sess.Credential = value
		case userIDKey:
			sess.UserID = value
		}
	}
	if err := rows.Err(); err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// Set stores credential and user id in a single transaction. Both must be
// non-empty: a credential without a user id would break every scoped read.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if sess.Credential == "" || sess.UserID == "" {
		return ErrIncompleteSession
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session write: %w", err)
	}
	defer tx.Rollback()

	for key, value := range map[string]string{
		credentialKey: sess.Credential,
		userIDKey:     sess.UserID,
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_values (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value); err != nil {
			return fmt.Errorf("write session key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session write: %w", err)
	}
	return nil
}

// Clear removes credential and user id in a single transaction (logout).
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_values WHERE key IN (?, ?)`,
		credentialKey, userIDKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session clear: %w", err)
	}
	return nil
}

// IsAuthenticated is the synchronous gate check: credential presence only,
// no validation of token contents or expiry.
func (s *Store) IsAuthenticated() bool {
	sess, err := s.Get(context.Background())
	if err != nil {
		return false
	}
	return sess.Present()
}

// Credential implements api.CredentialSource. Empty when absent or on read
// failure, which makes the gateway omit the Authorization header.
func (s *Store) Credential() string {
	sess, err := s.Get(context.Background())
	if err != nil {
		return ""
	}
	return sess.Credential
}

// UserID returns the stored user id, empty when absent.
func (s *Store) UserID() string {
	sess, err := s.Get(context.Background())
	if err != nil {
		return ""
	}
	return sess.UserID
}
