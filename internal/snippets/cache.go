package snippets

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"
)

// Invalidator drops cached reads that a write made stale. Ratings move a
// snippet's weighted score, so the ratings flow invalidates through it too.
type Invalidator interface {
	DeleteByID(ctx context.Context, id string) error
	// InvalidateLists retires every cached list page at once.
	InvalidateLists(ctx context.Context) error
}

type Cache interface {
	Invalidator
	GetByID(ctx context.Context, id string) (*Snippet, bool, error)
	SetByID(ctx context.Context, s *Snippet, ttl time.Duration) error
	GetList(ctx context.Context, key string) ([]*Snippet, bool, error)
	SetList(ctx context.Context, key string, snippets []*Snippet, ttl time.Duration) error
}

// Invalidate drops the cached copy of id and every cached list page. Both
// steps run even if the first fails.
func Invalidate(ctx context.Context, inv Invalidator, id string) error {
	if inv == nil {
		return nil
	}
	var errs []error
	if id != "" {
		errs = append(errs, inv.DeleteByID(ctx, id))
	}
	errs = append(errs, inv.InvalidateLists(ctx))
	return errors.Join(errs...)
}

// listCacheKey is stable for equal filters regardless of field order.
func listCacheKey(f SnippetFilter) string {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Author != "" {
		v.Set("author", f.Author)
	}
	if f.Language != "" {
		v.Set("language", f.Language)
	}
	if f.Tag != "" {
		v.Set("tag", f.Tag)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	return v.Encode()
}
