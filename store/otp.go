package store

import (
	"context"
	"fmt"

	"github.com/ViniZap4/tonote-server/domain"
)

// SaveOTP stores the code for c.Email, replacing any pending one.
func (db *DB) SaveOTP(ctx context.Context, c domain.OTPCode) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO otp_codes (email, code_hash, attempts, created_at, expires_at)
		 VALUES ($1, $2, 0, $3, $4)
		 ON CONFLICT (email) DO UPDATE
		   SET code_hash = EXCLUDED.code_hash,
		       attempts = 0,
		       created_at = EXCLUDED.created_at,
		       expires_at = EXCLUDED.expires_at`,
		c.Email, c.CodeHash, c.CreatedAt, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save otp: %w", mapError(err))
	}
	return nil
}

func (db *DB) GetOTP(ctx context.Context, email string) (domain.OTPCode, error) {
	var c domain.OTPCode
	err := db.pool.QueryRow(ctx,
		`SELECT email, code_hash, attempts, created_at, expires_at FROM otp_codes WHERE email = $1`,
		email).Scan(&c.Email, &c.CodeHash, &c.Attempts, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.OTPCode{}, fmt.Errorf("get otp: %w", mapError(err))
	}
	return c, nil
}

// IncrementOTPAttempts records a failed verification and returns the new count.
func (db *DB) IncrementOTPAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := db.pool.QueryRow(ctx,
		`UPDATE otp_codes SET attempts = attempts + 1 WHERE email = $1 RETURNING attempts`,
		email).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("increment otp attempts: %w", mapError(err))
	}
	return attempts, nil
}

func (db *DB) DeleteOTP(ctx context.Context, email string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM otp_codes WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete otp: %w", mapError(err))
	}
	return nil
}
