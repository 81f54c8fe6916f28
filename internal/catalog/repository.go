package catalog

import (
	"context"

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
	sqlTopAuthors = `SELECT u.id, u.username, count(s.id) AS snippets,
		       COALESCE(sum(st.likes), 0)::bigint AS likes
		FROM users u
		JOIN snippets s ON s.author_id = u.id
		LEFT JOIN LATERAL (
			SELECT count(*) AS likes
			FROM ratings r
			WHERE r.snippet_id = s.id AND r.value = 'like'
		) st ON true
		GROUP BY u.id, u.username
		ORDER BY snippets DESC, likes DESC, u.username ASC, u.id ASC
		LIMIT $1;`

	sqlLanguages = `SELECT language, count(*) AS snippets
		FROM snippets
		GROUP BY language
		ORDER BY language ASC;`

	sqlTopLanguages = `SELECT language, count(*) AS snippets
		FROM snippets
		GROUP BY language
		ORDER BY snippets DESC, language ASC
		LIMIT $1;`

	sqlLanguageCount = `SELECT count(*) FROM snippets WHERE language = $1;`
)

func (r *Repository) TopAuthors(ctx context.Context, limit int) ([]*AuthorStat, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "catalog.top_authors"), sqlTopAuthors, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*AuthorStat, 0, limit)
	for rows.Next() {
		var a AuthorStat
		if err := rows.Scan(&a.AuthorID, &a.Username, &a.Snippets, &a.Likes); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *Repository) Languages(ctx context.Context) ([]*LanguageStat, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "catalog.languages"), sqlLanguages)
	if err != nil {
		return nil, err
	}
	return collectLanguages(rows)
}

func (r *Repository) TopLanguages(ctx context.Context, limit int) ([]*LanguageStat, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "catalog.top_languages"), sqlTopLanguages, limit)
	if err != nil {
		return nil, err
	}
	return collectLanguages(rows)
}

func (r *Repository) CountLanguage(ctx context.Context, name string) (int, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var n int
	err := r.base.Q().QueryRow(db.WithQueryName(ctx, "catalog.language_count"), sqlLanguageCount, name).Scan(&n)
	return n, err
}

func collectLanguages(rows pgx.Rows) ([]*LanguageStat, error) {
	defer rows.Close()

	out := make([]*LanguageStat, 0, 16)
	for rows.Next() {
		var l LanguageStat
		if err := rows.Scan(&l.Name, &l.Snippets); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
