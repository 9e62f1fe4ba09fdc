package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// SessionRepository persists sessions in the SQLite sessions table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load returns the session stored under key, or [shared.ErrSessionMissing].
func (r *SessionRepository) Load(ctx context.Context, key string) (models.Session, error) {
	query := `SELECT user_json, token FROM sessions WHERE key = ?`

	var (
		userJSON string
		token    string
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(&userJSON, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("%w: %s", shared.ErrSessionMissing, key)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to query session: %w", err)
	}

	return decodeSession(userJSON, token)
}

// Save writes session under key, replacing any previous record.
func (r *SessionRepository) Save(ctx context.Context, key string, session models.Session) error {
	userJSON, err := encodeUser(session)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO sessions (key, user_json, token, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET user_json = excluded.user_json, token = excluded.token, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, userJSON, session.Token, now, now); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the record under key. Deleting a missing key is not an error.
func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Purge removes sessions not written since before and returns how many were removed.
func (r *SessionRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func encodeUser(session models.Session) (string, error) {
	data, err := json.Marshal(session.User)
	if err != nil {
		return "", fmt.Errorf("failed to encode session user: %w", err)
	}
	return string(data), nil
}

func decodeSession(userJSON, token string) (models.Session, error) {
	var user *models.UserProfile
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode session user: %w", err)
	}
	return models.Session{User: user, Token: token}, nil
}
