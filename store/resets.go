package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ViniZap4/tonote-server/domain"
)

func (db *DB) CreateReset(ctx context.Context, r domain.PasswordReset) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`,
		r.TokenHash, r.UserID, r.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create reset: %w", mapError(err))
	}
	return nil
}

// ConsumeReset marks an unused, unexpired reset token as used and returns
// its user. Any other token yields domain.ErrTokenInvalid.
func (db *DB) ConsumeReset(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var userID string
	err := db.pool.QueryRow(ctx,
		`UPDATE password_resets SET used_at = $2
		  WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING user_id::text`,
		tokenHash, now).Scan(&userID)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrTokenInvalid
		}
		return "", fmt.Errorf("consume reset: %w", err)
	}
	return userID, nil
}
