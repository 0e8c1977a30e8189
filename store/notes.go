package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ViniZap4/tonote-server/domain"
)

const noteColumns = `id::text, user_id::text, title, content, tags, is_archived, created_at, updated_at`

func scanNote(row pgx.Row) (domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Tags, &n.IsArchived, &n.CreatedAt, &n.UpdatedAt)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, err
}

func collectNote(row pgx.CollectableRow) (domain.Note, error) {
	return scanNote(row)
}

// ListNotes returns the user's notes, most recently updated first.
func (db *DB) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", mapError(err))
	}
	notes, err := pgx.CollectRows(rows, collectNote)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", mapError(err))
	}
	return notes, nil
}

func (db *DB) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	n, err := scanNote(db.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return domain.Note{}, fmt.Errorf("get note %s: %w", id, mapError(err))
	}
	return n, nil
}

func (db *DB) CreateNote(ctx context.Context, userID string, in domain.NoteInput) (domain.Note, error) {
	n, err := scanNote(db.pool.QueryRow(ctx,
		`INSERT INTO notes (user_id, title, content, tags)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+noteColumns,
		userID, in.Title, in.Content, domain.NormalizeTags(in.Tags)))
	if err != nil {
		return domain.Note{}, fmt.Errorf("create note: %w", mapError(err))
	}
	return n, nil
}

func (db *DB) UpdateNote(ctx context.Context, userID, id string, p domain.NotePatch) (domain.Note, error) {
	var tags []string
	if p.Tags != nil {
		tags = domain.NormalizeTags(*p.Tags)
	}
	n, err := scanNote(db.pool.QueryRow(ctx,
		`UPDATE notes
		    SET title = COALESCE($3::text, title),
		        content = COALESCE($4::text, content),
		        tags = COALESCE($5::text[], tags),
		        updated_at = now()
		  WHERE id = $1 AND user_id = $2
		RETURNING `+noteColumns,
		id, userID, p.Title, p.Content, tags))
	if err != nil {
		return domain.Note{}, fmt.Errorf("update note %s: %w", id, mapError(err))
	}
	return n, nil
}

func (db *DB) SetArchived(ctx context.Context, userID, id string, archived bool) (domain.Note, error) {
	n, err := scanNote(db.pool.QueryRow(ctx,
		`UPDATE notes SET is_archived = $3, updated_at = now()
		  WHERE id = $1 AND user_id = $2
		RETURNING `+noteColumns,
		id, userID, archived))
	if err != nil {
		return domain.Note{}, fmt.Errorf("archive note %s: %w", id, mapError(err))
	}
	return n, nil
}

func (db *DB) DeleteNote(ctx context.Context, userID, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete note %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListTags returns every distinct tag used by the user, sorted.
func (db *DB) ListTags(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT DISTINCT unnest(tags) FROM notes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", mapError(err))
	}
	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", mapError(err))
	}
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return domain.SortedTags(set), nil
}
