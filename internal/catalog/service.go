package catalog

import (
	"context"
	"strings"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/snippets"
)

const (
	defaultTop      = 3
	maxTop          = 50
	defaultPageSize = 20
	maxPageSize     = 100
)

type Store interface {
	TopAuthors(ctx context.Context, limit int) ([]*AuthorStat, error)
	Languages(ctx context.Context) ([]*LanguageStat, error)
	TopLanguages(ctx context.Context, limit int) ([]*LanguageStat, error)
	CountLanguage(ctx context.Context, name string) (int, error)
}

type SnippetLister interface {
	List(ctx context.Context, input snippets.ListInput) ([]*snippets.Snippet, error)
}

// Service serves the public leaderboards and the per-language listings.
type Service struct {
	Store    Store
	Snippets SnippetLister
}

// TopAuthors ranks authors by snippet count, then likes received.
func (s *Service) TopAuthors(ctx context.Context, limit int) ([]*AuthorStat, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "catalog store not configured")
	}
	list, err := s.Store.TopAuthors(ctx, topLimit(limit))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load top authors", err)
	}
	return list, nil
}

func (s *Service) Languages(ctx context.Context) ([]*LanguageStat, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "catalog store not configured")
	}
	list, err := s.Store.Languages(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list languages", err)
	}
	return list, nil
}

func (s *Service) TopLanguages(ctx context.Context, limit int) ([]*LanguageStat, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "catalog store not configured")
	}
	list, err := s.Store.TopLanguages(ctx, topLimit(limit))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load top languages", err)
	}
	return list, nil
}

// Language returns one page of the snippets written in name. Languages with
// no snippets are not found.
func (s *Service) Language(ctx context.Context, name string, limit, offset int) (*LanguageDetail, error) {
	if s.Store == nil || s.Snippets == nil {
		return nil, apperrors.New(apperrors.KindInternal, "catalog store not configured")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "language is required")
	}

	count, err := s.Store.CountLanguage(ctx, name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load language", err)
	}
	if count == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "language not found")
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	items, err := s.Snippets.List(ctx, snippets.ListInput{
		Language: name,
		Limit:    min(limit, maxPageSize),
		Offset:   max(offset, 0),
	})
	if err != nil {
		return nil, err
	}

	return &LanguageDetail{
		LanguageStat: LanguageStat{Name: name, Snippets: count},
		Items:        items,
	}, nil
}

func topLimit(limit int) int {
	if limit <= 0 {
		return defaultTop
	}
	return min(limit, maxTop)
}
