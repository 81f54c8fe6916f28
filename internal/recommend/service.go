package recommend

import (
	"context"
	"time"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/snippets"
	"github.com/PabloPavan/sniply/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultLimit    = 5
	DefaultMaxLimit = 50
)

type SnippetFinder interface {
	FindCandidates(ctx context.Context, f snippets.CandidateFilter) ([]*snippets.Snippet, error)
	ListLikedBy(ctx context.Context, userID string) ([]*snippets.Snippet, error)
	Popular(ctx context.Context, f snippets.PopularFilter) ([]*snippets.Snippet, error)
}

type LikedAuthors interface {
	LikedAuthorIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

// Service runs the two recommendation pipelines over a SnippetFinder.
// Zero-valued weights and MaxLimit fall back to the package defaults.
// CandidateLimit <= 0 scores every candidate the pre-filter admits.
type Service struct {
	Snippets SnippetFinder
	Ratings  LikedAuthors

	Similarity SimilarityWeights
	Preference PreferenceWeights

	MaxLimit       int
	CandidateLimit int
}

// SimilarSnippets ranks snippets related to ref. requesterID may be empty
// for anonymous callers; when set, the requester's own snippets are skipped
// and authors they liked before get a bonus. limit <= 0 yields no results.
func (s *Service) SimilarSnippets(ctx context.Context, ref *snippets.Snippet, requesterID string, limit int) (out []Scored, err error) {
	if s.Snippets == nil {
		return nil, apperrors.New(apperrors.KindInternal, "recommend snippet finder not configured")
	}
	if ref == nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "reference snippet is required")
	}

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "recommend.similar",
		attribute.String("snippet.id", ref.ID),
		attribute.Bool("recommend.authenticated", requesterID != ""),
		attribute.Int("recommend.limit", limit),
	)
	candidates := 0
	defer func() {
		finish(ctx, span, pipelineSimilar, candidates, len(out), err, time.Since(start))
	}()

	limit = s.clampLimit(limit)
	refTags := ref.NormalizedTags()
	if limit == 0 || refTags.Empty() {
		return []Scored{}, nil
	}
	first, _ := refTags.First()

	filter := snippets.CandidateFilter{
		ExcludeID:     ref.ID,
		ExcludeAuthor: requesterID,
		Language:      ref.Language,
		AnyTags:       []string{first},
		Limit:         s.candidateLimit(),
	}
	found, err := s.Snippets.FindCandidates(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load candidates", err)
	}

	var likedAuthors map[string]struct{}
	if requesterID != "" && s.Ratings != nil {
		likedAuthors, err = s.Ratings.LikedAuthorIDs(ctx, requesterID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load liked authors", err)
		}
	}

	w := s.similarityWeights()
	board := newScoreboard(len(found))
	for _, c := range found {
		if c == nil || c.ID == ref.ID || (requesterID != "" && c.AuthorID == requesterID) {
			continue
		}
		board.add(c, w.content(ref, refTags, c))
	}
	for _, it := range board.items {
		board.add(it.Snippet, w.social(it.Snippet))
	}
	if len(likedAuthors) > 0 {
		for _, it := range board.items {
			board.add(it.Snippet, w.personal(it.Snippet, likedAuthors))
		}
	}
	candidates = board.len()

	return Rank(board.items, limit), nil
}

// UserRecommendations ranks unseen snippets by how many tags they share with
// the snippets userID liked. Users without likes get the popular list.
func (s *Service) UserRecommendations(ctx context.Context, userID string, limit int) (out []Scored, err error) {
	if s.Snippets == nil {
		return nil, apperrors.New(apperrors.KindInternal, "recommend snippet finder not configured")
	}
	if userID == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	start := time.Now()
	pipeline := pipelinePreferred
	ctx, span := telemetry.StartSpan(ctx, "recommend.user",
		attribute.String("user.id", userID),
		attribute.Int("recommend.limit", limit),
	)
	candidates := 0
	defer func() {
		span.SetAttributes(attribute.String("recommend.pipeline", pipeline))
		finish(ctx, span, pipeline, candidates, len(out), err, time.Since(start))
	}()

	limit = s.clampLimit(limit)
	if limit == 0 {
		return []Scored{}, nil
	}

	liked, err := s.Snippets.ListLikedBy(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load liked snippets", err)
	}

	if len(liked) == 0 {
		pipeline = pipelinePopular
		var popular []*snippets.Snippet
		popular, err = s.Snippets.Popular(ctx, snippets.PopularFilter{
			ExcludeAuthor:  userID,
			ExcludeRatedBy: userID,
			Limit:          limit,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load popular snippets", err)
		}
		candidates = len(popular)
		out = make([]Scored, 0, min(len(popular), limit))
		for _, p := range popular {
			if len(out) == limit {
				break
			}
			out = append(out, Scored{Snippet: p})
		}
		return out, nil
	}

	var union snippets.TagSet
	for _, l := range liked {
		union = union.Union(l.NormalizedTags())
	}
	if union.Empty() {
		return []Scored{}, nil
	}

	found, err := s.Snippets.FindCandidates(ctx, snippets.CandidateFilter{
		ExcludeAuthor:  userID,
		ExcludeRatedBy: userID,
		AnyTags:        union.Slice(),
		Limit:          s.candidateLimit(),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load candidates", err)
	}

	w := s.preferenceWeights()
	board := newScoreboard(len(found))
	for _, c := range found {
		if c == nil || c.AuthorID == userID {
			continue
		}
		// the tag pre-filter matches substrings; keep exact overlaps only
		shared := union.Overlap(c.NormalizedTags())
		if shared == 0 {
			continue
		}
		board.add(c, w.score(shared))
	}
	candidates = board.len()

	return Rank(board.items, limit), nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	maxLimit := s.MaxLimit
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	return min(limit, maxLimit)
}

func (s *Service) candidateLimit() int {
	return max(s.CandidateLimit, 0)
}

func (s *Service) similarityWeights() SimilarityWeights {
	if s.Similarity == (SimilarityWeights{}) {
		return DefaultSimilarityWeights
	}
	return s.Similarity
}

func (s *Service) preferenceWeights() PreferenceWeights {
	if s.Preference == (PreferenceWeights{}) {
		return DefaultPreferenceWeights
	}
	return s.Preference
}

func finish(ctx context.Context, span trace.Span, pipeline string, candidates, results int, err error, elapsed time.Duration) {
	span.SetAttributes(
		attribute.Int("recommend.candidates", candidates),
		attribute.Int("recommend.results", results),
	)
	if err != nil {
		telemetry.LogError(ctx, "recommendation failed",
			telemetry.LogString("recommend.pipeline", pipeline),
			telemetry.LogErr(err),
		)
	}
	telemetry.EndSpan(span, err)
	recordRun(ctx, pipeline, candidates, results, err, elapsed)
}
