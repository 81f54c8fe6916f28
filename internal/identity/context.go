package identity

import (
	"context"
	"strings"
)

// principal is the caller attached to a request context by the session middleware.
type principal struct {
	userID string
	role   string
}

type ctxKey struct{}

func WithUser(ctx context.Context, userID string, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, principal{userID: userID, role: role})
}

func from(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(principal)
	return p, ok
}

func UserID(ctx context.Context) (string, bool) {
	p, ok := from(ctx)
	return p.userID, ok
}

// Authenticated reports the caller's user id, or "" and false for anonymous requests.
func Authenticated(ctx context.Context) (string, bool) {
	p, _ := from(ctx)
	id := strings.TrimSpace(p.userID)
	return id, id != ""
}

func Role(ctx context.Context) (string, bool) {
	p, ok := from(ctx)
	return p.role, ok
}

func IsAdmin(ctx context.Context) bool {
	p, _ := from(ctx)
	return p.role == "admin"
}

// IsModerator is true for admins as well.
func IsModerator(ctx context.Context) bool {
	p, _ := from(ctx)
	return p.role == "moderator" || p.role == "admin"
}
