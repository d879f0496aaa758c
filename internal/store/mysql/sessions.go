package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/huddlechat/huddle/internal/store"
)

// SessionStore maps opaque uuid tokens to user ids. Sessions are
// fixed-duration from issuance; verification never renews them.
type SessionStore struct {
	DB  *sql.DB
	TTL time.Duration
}

// NewSessionStore creates a session store with the given time-to-live.
func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	return &SessionStore{DB: db, TTL: ttl}
}

// Create issues a new random token for the user.
func (s *SessionStore) Create(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	query := `INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`
	if _, err := s.DB.ExecContext(ctx, query, token, userID, time.Now().Add(s.TTL)); err != nil {
		return "", err
	}
	return token, nil
}

// Verify resolves a token to a user id. Unknown and expired tokens both
// return ErrSessionInvalid; expired rows are deleted opportunistically.
func (s *SessionStore) Verify(ctx context.Context, token string) (int64, error) {
	var userID int64
	var expiresAt time.Time
	query := `SELECT user_id, expires_at FROM sessions WHERE token = ?`
	err := s.DB.QueryRowContext(ctx, query, token).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrSessionInvalid
		}
		return 0, err
	}
	if time.Now().After(expiresAt) {
		_ = s.Delete(ctx, token)
		return 0, store.ErrSessionInvalid
	}
	return userID, nil
}

// Delete removes a session token. Deleting an absent token is not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}
