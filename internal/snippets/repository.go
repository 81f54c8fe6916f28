package snippets

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloPavan/sniply/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

// WeightedScoreSQL is likes / (likes + dislikes) over a relation alias that
// exposes likes and dislikes counts; unrated snippets score 0. Every query
// that reports a weighted score uses it.
func WeightedScoreSQL(alias string) string {
	return fmt.Sprintf("COALESCE(%[1]s.likes::float8 / NULLIF(%[1]s.likes + %[1]s.dislikes, 0), 0)", alias)
}

var (
	sqlSnippetColumns = `s.id, s.title, s.content, s.description, s.language, s.tags, s.author_id,
		` + WeightedScoreSQL("st") + ` AS weighted_score,
		s.created_at, s.updated_at`

	sqlSnippetFrom = `FROM snippets s
		LEFT JOIN LATERAL (
			SELECT count(*) FILTER (WHERE r.value = 'like') AS likes,
			       count(*) FILTER (WHERE r.value = 'dislike') AS dislikes
			FROM ratings r
			WHERE r.snippet_id = s.id
		) st ON true`

	sqlSnippetInsert = `INSERT INTO snippets (id, title, content, description, language, tags, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at;`

	sqlSnippetSelectByID = `SELECT ` + sqlSnippetColumns + `
		` + sqlSnippetFrom + `
		WHERE s.id = $1
		LIMIT 1;`

	sqlSnippetListBase = `SELECT ` + sqlSnippetColumns + `
		` + sqlSnippetFrom + `
		WHERE %s
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $%d OFFSET $%d;`

	// Candidates are enumerated oldest first so ties in the ranker are stable.
	sqlSnippetCandidatesBase = `SELECT ` + sqlSnippetColumns + `
		` + sqlSnippetFrom + `
		WHERE %s
		ORDER BY s.created_at ASC, s.id ASC;`

	// A capped pool keeps the most relevant matches (exact tag overlap, then
	// language, then rating) and still hands them back oldest first.
	sqlSnippetCandidatesCapped = `SELECT * FROM (
			SELECT ` + sqlSnippetColumns + `
			` + sqlSnippetFrom + `
			WHERE %s
			ORDER BY (SELECT count(*) FROM unnest($%d::text[]) AS o(tag)
			          WHERE o.tag = ANY(string_to_array(s.tags, ','))) DESC,
			         (s.language = $%d) DESC,
			         weighted_score DESC,
			         s.created_at ASC, s.id ASC
			LIMIT $%d
		) c
		ORDER BY c.created_at ASC, c.id ASC;`

	sqlSnippetLikedBy = `SELECT ` + sqlSnippetColumns + `
		` + sqlSnippetFrom + `
		JOIN ratings lr ON lr.snippet_id = s.id
		WHERE lr.user_id = $1 AND lr.value = 'like'
		ORDER BY lr.created_at ASC, s.id ASC;`

	// Fallback ordering: a snippet's highest rating value, like > dislike > unrated.
	sqlSnippetPopularBase = `SELECT ` + sqlSnippetColumns + `
		` + sqlSnippetFrom + `
		WHERE %s
		ORDER BY (CASE WHEN st.likes > 0 THEN 2 WHEN st.dislikes > 0 THEN 1 ELSE 0 END) DESC,
		         s.created_at DESC, s.id DESC
		LIMIT $%d;`

	sqlSnippetUpdate = `UPDATE snippets
		SET title = $1, content = $2, description = $3, language = $4, tags = $5, updated_at = now()
		WHERE id = $6 AND (author_id = $7 OR $8)
		RETURNING author_id, created_at, updated_at;`

	sqlSnippetDelete = `DELETE FROM snippets
		WHERE id = $1 AND (author_id = $2 OR $3);`

	sqlNotRatedBy = `NOT EXISTS (SELECT 1 FROM ratings rr WHERE rr.snippet_id = s.id AND rr.user_id = $%d)`
)

func scanSnippet(row pgx.Row) (*Snippet, error) {
	var s Snippet
	if err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Content,
		&s.Description,
		&s.Language,
		&s.Tags,
		&s.AuthorID,
		&s.WeightedScore,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSnippets(rows pgx.Rows, capHint int) ([]*Snippet, error) {
	defer rows.Close()

	out := make([]*Snippet, 0, min(max(capHint, 0), 128))
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, s *Snippet) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.base.Q().QueryRow(ctx, sqlSnippetInsert,
		s.ID,
		s.Title,
		s.Content,
		s.Description,
		s.Language,
		s.Tags,
		s.AuthorID,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Snippet, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	s, err := scanSnippet(r.base.Q().QueryRow(ctx, sqlSnippetSelectByID, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, f SnippetFilter) ([]*Snippet, error) {
	where := []string{"1=1"}
	args := make([]any, 0, 8)
	argPos := 1

	if f.Author != "" {
		where = append(where, fmt.Sprintf("s.author_id = $%d", argPos))
		args = append(args, f.Author)
		argPos++
	}
	if f.Language != "" {
		where = append(where, fmt.Sprintf("s.language = $%d", argPos))
		args = append(args, f.Language)
		argPos++
	}
	if f.Query != "" {
		where = append(where, fmt.Sprintf("s.title ILIKE '%%' || $%d || '%%'", argPos))
		args = append(args, escapeLike(strings.TrimSpace(f.Query)))
		argPos++
	}
	if f.Tag != "" {
		where = append(where, fmt.Sprintf("$%d = ANY(string_to_array(s.tags, ','))", argPos))
		args = append(args, f.Tag)
		argPos++
	}

	limit := defaultPageSize
	if f.Limit > 0 {
		limit = min(f.Limit, maxPageSize)
	}

	offset := max(f.Offset, 0)

	limitPos := argPos
	offsetPos := argPos + 1
	args = append(args, limit, offset)

	query := fmt.Sprintf(sqlSnippetListBase, strings.Join(where, " AND "), limitPos, offsetPos)

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "snippets.list"), query, args...)
	if err != nil {
		return nil, err
	}
	return collectSnippets(rows, limit)
}

// FindCandidates returns the snippets matching f in discovery order
// (oldest first). See CandidateFilter for the matching rules.
func (r *Repository) FindCandidates(ctx context.Context, f CandidateFilter) ([]*Snippet, error) {
	if !f.Matchable() {
		return []*Snippet{}, nil
	}

	where := make([]string, 0, 4)
	args := make([]any, 0, 4+len(f.AnyTags))
	argPos := 1

	if f.ExcludeID != "" {
		where = append(where, fmt.Sprintf("s.id <> $%d", argPos))
		args = append(args, f.ExcludeID)
		argPos++
	}
	if f.ExcludeAuthor != "" {
		where = append(where, fmt.Sprintf("s.author_id <> $%d", argPos))
		args = append(args, f.ExcludeAuthor)
		argPos++
	}
	if f.ExcludeRatedBy != "" {
		where = append(where, fmt.Sprintf(sqlNotRatedBy, argPos))
		args = append(args, f.ExcludeRatedBy)
		argPos++
	}

	match := make([]string, 0, 1+len(f.AnyTags))
	if f.Language != "" {
		match = append(match, fmt.Sprintf("s.language = $%d", argPos))
		args = append(args, f.Language)
		argPos++
	}
	tags := make([]string, 0, len(f.AnyTags))
	for _, t := range f.AnyTags {
		if t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		match = append(match, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest($%d::text[]) AS t(tag) WHERE strpos(s.tags, t.tag) > 0)", argPos))
		args = append(args, tags)
		argPos++
	}
	where = append(where, "("+strings.Join(match, " OR ")+")")

	query := fmt.Sprintf(sqlSnippetCandidatesBase, strings.Join(where, " AND "))
	if f.Limit > 0 {
		args = append(args, tags, f.Language, f.Limit)
		query = fmt.Sprintf(sqlSnippetCandidatesCapped, strings.Join(where, " AND "), argPos, argPos+1, argPos+2)
	}

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "snippets.find_candidates"), query, args...)
	if err != nil {
		return nil, err
	}
	return collectSnippets(rows, f.Limit)
}

// ListLikedBy returns the snippets userID rated "like", in the order the likes were given.
func (r *Repository) ListLikedBy(ctx context.Context, userID string) ([]*Snippet, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "snippets.liked_by"), sqlSnippetLikedBy, userID)
	if err != nil {
		return nil, err
	}
	return collectSnippets(rows, 32)
}

func (r *Repository) Popular(ctx context.Context, f PopularFilter) ([]*Snippet, error) {
	if f.Limit <= 0 {
		return []*Snippet{}, nil
	}

	where := []string{"1=1"}
	args := make([]any, 0, 3)
	argPos := 1

	if f.ExcludeAuthor != "" {
		where = append(where, fmt.Sprintf("s.author_id <> $%d", argPos))
		args = append(args, f.ExcludeAuthor)
		argPos++
	}
	if f.ExcludeRatedBy != "" {
		where = append(where, fmt.Sprintf(sqlNotRatedBy, argPos))
		args = append(args, f.ExcludeRatedBy)
		argPos++
	}

	args = append(args, f.Limit)

	query := fmt.Sprintf(sqlSnippetPopularBase, strings.Join(where, " AND "), argPos)

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "snippets.popular"), query, args...)
	if err != nil {
		return nil, err
	}
	return collectSnippets(rows, f.Limit)
}

// Update writes s when requesterID authored it or asModerator is set.
func (r *Repository) Update(ctx context.Context, s *Snippet, requesterID string, asModerator bool) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	err := r.base.Q().QueryRow(ctx, sqlSnippetUpdate,
		s.Title,
		s.Content,
		s.Description,
		s.Language,
		s.Tags,
		s.ID,
		requesterID,
		asModerator,
	).Scan(&s.AuthorID, &s.CreatedAt, &s.UpdatedAt)
	if IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id string, requesterID string, asModerator bool) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlSnippetDelete, id, requesterID, asModerator)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
