package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

const pgSessionsSchema = `
	CREATE TABLE IF NOT EXISTS sessions (
		key TEXT PRIMARY KEY,
		user_json JSONB NOT NULL,
		token TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

// NewPool opens a pgx pool for cfg.DSN and verifies the connection.
func NewPool(ctx context.Context, cfg shared.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: database.dsn: %w", shared.ErrInvalidConfig, err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(min(cfg.MaxIdleConns, cfg.MaxOpenConns))
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// PGSessionRepository persists sessions in PostgreSQL.
type PGSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPGSessionRepository(pool *pgxpool.Pool) *PGSessionRepository {
	return &PGSessionRepository{pool: pool}
}

// EnsureSchema creates the sessions table if it does not exist.
func (r *PGSessionRepository) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	if _, err := r.pool.Exec(ctx, pgSessionsSchema); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

func (r *PGSessionRepository) Load(ctx context.Context, key string) (models.Session, error) {
	if r.pool == nil {
		return models.Session{}, errors.New("nil postgres pool")
	}

	var (
		userJSON string
		token    string
	)
	row := r.pool.QueryRow(ctx, `SELECT user_json::text, token FROM sessions WHERE key = $1`, key)
	if err := row.Scan(&userJSON, &token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, fmt.Errorf("%w: %s", shared.ErrSessionMissing, key)
		}
		return models.Session{}, fmt.Errorf("failed to query session: %w", err)
	}
	return decodeSession(userJSON, token)
}

func (r *PGSessionRepository) Save(ctx context.Context, key string, session models.Session) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userJSON, err := encodeUser(session)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO sessions (key, user_json, token, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $4, $4)
		ON CONFLICT (key) DO UPDATE SET
			user_json = EXCLUDED.user_json,
			token = EXCLUDED.token,
			updated_at = EXCLUDED.updated_at
	`, key, userJSON, session.Token, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *PGSessionRepository) Delete(ctx context.Context, key string) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Purge removes sessions not written since before and returns how many were removed.
func (r *PGSessionRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
