package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/vidtalk/internal/shared"
)

const sessionTokenKey = "token"

// SessionRepository stores the session token as a row in session_state.
//
// It satisfies session.TokenStore for users who keep everything in the cache database.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load returns the stored token or "" when none is stored.
func (r *SessionRepository) Load() (string, error) {
	var token string
	err := r.db.QueryRow("SELECT value FROM session_state WHERE key = ?", sessionTokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read token: %v", shared.ErrTokenStore, err)
	}
	return token, nil
}

// Save replaces the stored token.
func (r *SessionRepository) Save(token string) error {
	query := `
		INSERT INTO session_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, sessionTokenKey, token); err != nil {
		return fmt.Errorf("%w: failed to write token: %v", shared.ErrTokenStore, err)
	}
	return nil
}

// Clear deletes the stored token. Clearing an empty store succeeds.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM session_state WHERE key = ?", sessionTokenKey); err != nil {
		return fmt.Errorf("%w: failed to clear token: %v", shared.ErrTokenStore, err)
	}
	return nil
}
