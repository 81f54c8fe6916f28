package bookmarks

import (
	"context"
	"errors"
	"time"

	"github.com/PabloPavan/sniply/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

const (
	sqlBookmarkInsert = `INSERT INTO bookmarks (user_id, snippet_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, snippet_id) DO NOTHING
		RETURNING created_at;`

	sqlBookmarkDelete = `DELETE FROM bookmarks
		WHERE user_id = $1 AND snippet_id = $2;`

	sqlBookmarkListByUser = `SELECT s.id, s.title, s.language, s.tags, s.author_id, b.created_at
		FROM bookmarks b
		JOIN snippets s ON s.id = b.snippet_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, s.id DESC
		LIMIT $2 OFFSET $3;`

	// Snippets nobody bookmarked still rank, with a count of zero.
	sqlBookmarkTop = `SELECT s.id, s.title, s.language, s.author_id, count(b.user_id) AS bookmarks
		FROM snippets s
		LEFT JOIN bookmarks b ON b.snippet_id = s.id
		GROUP BY s.id
		ORDER BY bookmarks DESC, s.created_at DESC, s.id DESC
		LIMIT $1;`
)

// Add reports false when the bookmark already existed.
func (r *Repository) Add(ctx context.Context, userID, snippetID string) (bool, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var createdAt time.Time
	err := r.base.Q().QueryRow(ctx, sqlBookmarkInsert, userID, snippetID).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) Remove(ctx context.Context, userID, snippetID string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlBookmarkDelete, userID, snippetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Entry, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "bookmarks.list_by_user"), sqlBookmarkListByUser, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SnippetID, &e.Title, &e.Language, &e.Tags, &e.AuthorID, &e.BookmarkedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Top(ctx context.Context, limit int) ([]*TopEntry, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "bookmarks.top"), sqlBookmarkTop, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*TopEntry, 0, limit)
	for rows.Next() {
		var e TopEntry
		if err := rows.Scan(&e.SnippetID, &e.Title, &e.Language, &e.AuthorID, &e.Count); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
