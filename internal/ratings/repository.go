package ratings

import (
	"context"

	"github.com/PabloPavan/sniply/internal/db"
	"github.com/PabloPavan/sniply/internal/snippets"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

var (
	sqlRatingUpsert = `INSERT INTO ratings (user_id, snippet_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, snippet_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING created_at, updated_at;`

	sqlRatingGet = `SELECT user_id, snippet_id, value, created_at, updated_at
		FROM ratings
		WHERE user_id = $1 AND snippet_id = $2;`

	sqlRatingDelete = `DELETE FROM ratings
		WHERE user_id = $1 AND snippet_id = $2;`

	sqlRatingStats = `SELECT st.likes, st.dislikes, ` + snippets.WeightedScoreSQL("st") + `
		FROM (
			SELECT count(*) FILTER (WHERE value = 'like') AS likes,
			       count(*) FILTER (WHERE value = 'dislike') AS dislikes
			FROM ratings
			WHERE snippet_id = $1
		) st;`

	sqlLikedAuthors = `SELECT DISTINCT s.author_id
		FROM ratings r
		JOIN snippets s ON s.id = r.snippet_id
		WHERE r.user_id = $1 AND r.value = 'like';`
)

func (r *Repository) Upsert(ctx context.Context, rt *Rating) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.base.Q().QueryRow(ctx, sqlRatingUpsert,
		rt.UserID,
		rt.SnippetID,
		string(rt.Value),
	).Scan(&rt.CreatedAt, &rt.UpdatedAt)
}

func (r *Repository) Get(ctx context.Context, userID, snippetID string) (*Rating, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var rt Rating
	var value string
	err := r.base.Q().QueryRow(ctx, sqlRatingGet, userID, snippetID).Scan(
		&rt.UserID,
		&rt.SnippetID,
		&value,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rt.Value = Value(value)
	return &rt, nil
}

func (r *Repository) Delete(ctx context.Context, userID, snippetID string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlRatingDelete, userID, snippetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Stats(ctx context.Context, snippetID string) (Stats, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	st := Stats{SnippetID: snippetID}
	if err := r.base.Q().QueryRow(db.WithQueryName(ctx, "ratings.stats"), sqlRatingStats, snippetID).Scan(
		&st.Likes,
		&st.Dislikes,
		&st.WeightedScore,
	); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// LikedAuthorIDs returns the authors of every snippet userID rated "like".
func (r *Repository) LikedAuthorIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "ratings.liked_authors"), sqlLikedAuthors, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
