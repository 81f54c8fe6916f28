package bookmarks

import (
	"context"
	"strings"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/snippets"
	"github.com/PabloPavan/sniply/internal/telemetry"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultTop      = 3
	maxTop          = 50
)

type Store interface {
	Add(ctx context.Context, userID, snippetID string) (bool, error)
	Remove(ctx context.Context, userID, snippetID string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Entry, error)
	Top(ctx context.Context, limit int) ([]*TopEntry, error)
}

type SnippetLookup interface {
	GetByID(ctx context.Context, id string) (*snippets.Snippet, error)
}

type Service struct {
	Store    Store
	Snippets SnippetLookup
}

// Add bookmarks snippetID for the caller. created is false when it was
// already bookmarked.
func (s *Service) Add(ctx context.Context, snippetID string) (created bool, err error) {
	if s.Store == nil {
		return false, apperrors.New(apperrors.KindInternal, "bookmarks store not configured")
	}
	userID, ok := identity.Authenticated(ctx)
	if !ok {
		return false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return false, apperrors.New(apperrors.KindInvalidInput, "snippet id is required")
	}

	if s.Snippets != nil {
		if _, err := s.Snippets.GetByID(ctx, snippetID); err != nil {
			if snippets.IsNotFound(err) {
				return false, apperrors.New(apperrors.KindNotFound, "snippet not found")
			}
			return false, apperrors.Wrap(apperrors.KindInternal, "failed to load snippet", err)
		}
	}

	created, err = s.Store.Add(ctx, userID, snippetID)
	if err != nil {
		if IsUnknownSnippet(err) {
			return false, apperrors.New(apperrors.KindNotFound, "snippet not found")
		}
		return false, apperrors.Wrap(apperrors.KindInternal, "failed to save bookmark", err)
	}

	telemetry.RecordBookmark(ctx, "add", created)
	if created {
		telemetry.LogInfo(ctx, "snippet bookmarked",
			telemetry.LogString("event", "bookmark.created"),
			telemetry.LogString("user.id", userID),
			telemetry.LogString("snippet.id", snippetID),
		)
	}
	return created, nil
}

func (s *Service) Remove(ctx context.Context, snippetID string) error {
	if s.Store == nil {
		return apperrors.New(apperrors.KindInternal, "bookmarks store not configured")
	}
	userID, ok := identity.Authenticated(ctx)
	if !ok {
		return apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "snippet id is required")
	}

	if err := s.Store.Remove(ctx, userID, snippetID); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "bookmark not found")
		}
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete bookmark", err)
	}
	telemetry.RecordBookmark(ctx, "remove", false)
	return nil
}

func (s *Service) ListMine(ctx context.Context, limit, offset int) ([]*Entry, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "bookmarks store not configured")
	}
	userID, ok := identity.Authenticated(ctx)
	if !ok {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	list, err := s.Store.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list bookmarks", err)
	}
	return list, nil
}

// MostBookmarked returns the snippets with the most bookmarks, top 3 by default.
func (s *Service) MostBookmarked(ctx context.Context, limit int) ([]*TopEntry, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "bookmarks store not configured")
	}
	if limit <= 0 {
		limit = defaultTop
	}
	limit = min(limit, maxTop)

	list, err := s.Store.Top(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load most bookmarked snippets", err)
	}
	return list, nil
}
