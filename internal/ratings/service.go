package ratings

import (
	"context"
	"strings"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/snippets"
	"github.com/PabloPavan/sniply/internal/telemetry"
)

type Store interface {
	Upsert(ctx context.Context, r *Rating) error
	Get(ctx context.Context, userID, snippetID string) (*Rating, error)
	Delete(ctx context.Context, userID, snippetID string) error
	Stats(ctx context.Context, snippetID string) (Stats, error)
}

type SnippetLookup interface {
	GetByID(ctx context.Context, id string) (*snippets.Snippet, error)
}

type Service struct {
	Store       Store
	Snippets    SnippetLookup
	Invalidator snippets.Invalidator
}

func (s *Service) Rate(ctx context.Context, snippetID string, raw string) (*Rating, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "ratings store not configured")
	}
	userID, ok := identity.Authenticated(ctx)
	if !ok {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "snippet id is required")
	}
	value, err := ParseValue(raw)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "rating must be like or dislike")
	}

	if s.Snippets != nil {
		if _, err := s.Snippets.GetByID(ctx, snippetID); err != nil {
			if snippets.IsNotFound(err) {
				return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
			}
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load snippet", err)
		}
	}

	rating := &Rating{UserID: userID, SnippetID: snippetID, Value: value}
	if err := s.Store.Upsert(ctx, rating); err != nil {
		if IsUnknownSnippet(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to save rating", err)
	}

	s.invalidate(ctx, snippetID)
	telemetry.RecordRating(ctx, string(value))

	telemetry.LogInfo(ctx, "snippet rated",
		telemetry.LogString("event", "rating.saved"),
		telemetry.LogString("user.id", userID),
		telemetry.LogString("snippet.id", snippetID),
		telemetry.LogString("rating.value", string(value)),
	)

	return rating, nil
}

func (s *Service) Unrate(ctx context.Context, snippetID string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "ratings store not configured")
	}
	userID, ok := identity.Authenticated(ctx)
	if !ok {
		return apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "snippet id is required")
	}

	if err := s.Store.Delete(ctx, userID, snippetID); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "rating not found")
		}
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete rating", err)
	}

	s.invalidate(ctx, snippetID)
	telemetry.RecordRating(ctx, "cleared")
	return nil
}

// Mine returns the caller's rating of snippetID.
func (s *Service) Mine(ctx context.Context, snippetID string) (*Rating, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "ratings store not configured")
	}
	userID, ok := identity.Authenticated(ctx)
	if !ok {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	rating, err := s.Store.Get(ctx, userID, strings.TrimSpace(snippetID))
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "rating not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load rating", err)
	}
	return rating, nil
}

func (s *Service) Stats(ctx context.Context, snippetID string) (Stats, error) {
	if s.Store == nil {
		return Stats{}, apperrors.New(apperrors.KindInternal, "ratings store not configured")
	}
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return Stats{}, apperrors.New(apperrors.KindInvalidInput, "snippet id is required")
	}

	st, err := s.Store.Stats(ctx, snippetID)
	if err != nil {
		return Stats{}, apperrors.Wrap(apperrors.KindInternal, "failed to load rating stats", err)
	}
	return st, nil
}

func (s *Service) invalidate(ctx context.Context, snippetID string) {
	if s.Invalidator == nil {
		return
	}
	if err := snippets.Invalidate(ctx, s.Invalidator, snippetID); err != nil {
		telemetry.LogWarn(ctx, "snippet cache invalidation failed",
			telemetry.LogString("snippet.id", snippetID),
			telemetry.LogErr(err),
		)
	}
}
