package store

import (
	"context"
	"fmt"

	"github.com/ViniZap4/tonote-server/domain"
)

func (db *DB) CreateSession(ctx context.Context, s domain.SessionRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		s.TokenHash, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", mapError(err))
	}
	return nil
}

func (db *DB) GetSession(ctx context.Context, tokenHash string) (domain.SessionRecord, error) {
	var s domain.SessionRecord
	err := db.pool.QueryRow(ctx,
		`SELECT token_hash, user_id::text, created_at, expires_at FROM sessions WHERE token_hash = $1`,
		tokenHash).Scan(&s.TokenHash, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("get session: %w", mapError(err))
	}
	return s, nil
}

func (db *DB) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", mapError(err))
	}
	return nil
}

// DeleteUserSessions signs the user out everywhere.
func (db *DB) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", mapError(err))
	}
	return nil
}
