package snippets

import (
	"context"
	"strings"
	"time"

	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/telemetry"
	"github.com/PabloPavan/sniply/internal/users"
)

type Store interface {
	Create(ctx context.Context, s *Snippet) error
	GetByID(ctx context.Context, id string) (*Snippet, error)
	List(ctx context.Context, f SnippetFilter) ([]*Snippet, error)
	Update(ctx context.Context, s *Snippet, requesterID string, asModerator bool) error
	Delete(ctx context.Context, id string, requesterID string, asModerator bool) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type Service struct {
	Store        Store
	Users        UserLookup
	Cache        Cache
	CacheTTL     time.Duration
	ListCacheTTL time.Duration
	IDGenerator  func() string
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultLanguage = "txt"
)

var (
	errNoStore      = apperrors.New(apperrors.KindInternal, "snippets store not configured")
	errUnauthorized = apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	errNotFound     = apperrors.New(apperrors.KindNotFound, "snippet not found")
	errMissingID    = apperrors.New(apperrors.KindInvalidInput, "id is required")
)

type ListInput struct {
	Query    string
	Author   string
	Language string
	Tag      string
	Limit    int
	Offset   int
}

// filter normalizes the query and clamps the page to defaultPageSize..maxPageSize.
func (in ListInput) filter() SnippetFilter {
	limit := defaultPageSize
	if in.Limit > 0 {
		limit = min(in.Limit, maxPageSize)
	}
	return SnippetFilter{
		Query:    strings.TrimSpace(in.Query),
		Author:   strings.TrimSpace(in.Author),
		Language: strings.ToLower(strings.TrimSpace(in.Language)),
		Tag:      strings.ToLower(strings.TrimSpace(in.Tag)),
		Limit:    limit,
		Offset:   max(in.Offset, 0),
	}
}

func (s *Service) newID() string {
	if s.IDGenerator != nil {
		return s.IDGenerator()
	}
	return "snp_" + internal.RandomHex(12)
}

func (s *Service) Create(ctx context.Context, req CreateSnippetRequest) (*Snippet, error) {
	if s.Store == nil {
		return nil, errNoStore
	}
	authorID, ok := identity.Authenticated(ctx)
	if !ok {
		return nil, errUnauthorized
	}
	snippet, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}
	snippet.ID = s.newID()
	snippet.AuthorID = authorID

	switch err := s.Store.Create(ctx, snippet); {
	case err == nil:
	case IsUniqueViolationID(err):
		return nil, apperrors.New(apperrors.KindConflict, "snippet already exists")
	case IsUnknownAuthor(err):
		return nil, errUnauthorized
	default:
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to create snippet", err)
	}

	s.invalidate(ctx, "")
	return snippet, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Snippet, error) {
	if s.Store == nil {
		return nil, errNoStore
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errMissingID
	}
	if s.Cache != nil {
		if hit, ok, err := s.Cache.GetByID(ctx, id); err == nil && ok {
			return hit, nil
		}
	}

	snippet, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load snippet")
	}
	if s.Cache != nil && s.CacheTTL > 0 {
		_ = s.Cache.SetByID(ctx, snippet, s.CacheTTL)
	}
	return snippet, nil
}

func (s *Service) List(ctx context.Context, input ListInput) ([]*Snippet, error) {
	if s.Store == nil {
		return nil, errNoStore
	}
	filter := input.filter()
	if err := s.checkAuthor(ctx, filter.Author); err != nil {
		return nil, err
	}

	key := listCacheKey(filter)
	if s.Cache != nil {
		if hit, ok, err := s.Cache.GetList(ctx, key); err == nil && ok {
			return hit, nil
		}
	}

	page, err := s.Store.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list snippets", err)
	}
	if s.Cache != nil && s.ListCacheTTL > 0 {
		_ = s.Cache.SetList(ctx, key, page, s.ListCacheTTL)
	}
	return page, nil
}

// checkAuthor rejects a filter on an author that does not exist.
func (s *Service) checkAuthor(ctx context.Context, authorID string) error {
	if authorID == "" || s.Users == nil {
		return nil
	}
	_, err := s.Users.GetByID(ctx, authorID)
	switch {
	case err == nil:
		return nil
	case users.IsNotFound(err):
		return apperrors.New(apperrors.KindInvalidInput, "author not found")
	default:
		return apperrors.Wrap(apperrors.KindInternal, "failed to load author", err)
	}
}

// editor resolves who is changing snippet id. Only its author or a moderator
// may; the store enforces that with requesterID and asModerator.
type editor struct {
	id          string
	requesterID string
	asModerator bool
}

func (s *Service) editor(ctx context.Context, id string) (editor, error) {
	if s.Store == nil {
		return editor{}, errNoStore
	}
	requesterID, ok := identity.Authenticated(ctx)
	if !ok {
		return editor{}, errUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return editor{}, errMissingID
	}
	return editor{id: id, requesterID: requesterID, asModerator: identity.IsModerator(ctx)}, nil
}

func (s *Service) Update(ctx context.Context, id string, req CreateSnippetRequest) (*Snippet, error) {
	ed, err := s.editor(ctx, id)
	if err != nil {
		return nil, err
	}
	snippet, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}
	snippet.ID = ed.id

	if err := s.Store.Update(ctx, snippet, ed.requesterID, ed.asModerator); err != nil {
		return nil, storeError(err, "failed to update snippet")
	}
	s.invalidate(ctx, ed.id)
	return snippet, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ed, err := s.editor(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, ed.id, ed.requesterID, ed.asModerator); err != nil {
		return storeError(err, "failed to delete snippet")
	}
	s.invalidate(ctx, ed.id)
	return nil
}

func storeError(err error, msg string) error {
	if IsNotFound(err) {
		return errNotFound
	}
	return apperrors.Wrap(apperrors.KindInternal, msg, err)
}

func normalizeRequest(req CreateSnippetRequest) (*Snippet, error) {
	snippet := &Snippet{
		Title:       strings.TrimSpace(req.Title),
		Content:     strings.TrimSpace(req.Content),
		Description: strings.TrimSpace(req.Description),
		Language:    strings.ToLower(strings.TrimSpace(req.Language)),
		Tags:        CanonicalTags(req.Tags),
	}
	if snippet.Title == "" || snippet.Content == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "title and content are required")
	}
	if snippet.Language == "" {
		snippet.Language = defaultLanguage
	}
	return snippet, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := Invalidate(ctx, s.Cache, id); err != nil {
		telemetry.LogWarn(ctx, "snippet cache invalidation failed",
			telemetry.LogString("snippet.id", id),
			telemetry.LogErr(err),
		)
	}
}
