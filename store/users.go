package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ViniZap4/tonote-server/domain"
)

const userColumns = `id::text, email, password_hash, color_theme, font_theme, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.ColorTheme, &u.FontTheme, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts an account. passwordHash may be empty for accounts
// that only sign in with a code or Google.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) (domain.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING `+userColumns,
		email, passwordHash))
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", mapError(err))
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", mapError(err))
	}
	return u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, mapError(err))
	}
	return u, nil
}

func (db *DB) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password: %w", domain.ErrNotFound)
	}
	return nil
}

func (db *DB) UpdatePreferences(ctx context.Context, userID string, p domain.Preferences) (domain.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`UPDATE users SET color_theme = $2, font_theme = $3, updated_at = now()
		  WHERE id = $1
		RETURNING `+userColumns,
		userID, string(p.ColorTheme), string(p.FontTheme)))
	if err != nil {
		return domain.User{}, fmt.Errorf("update preferences: %w", mapError(err))
	}
	return u, nil
}
