package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/session"
	"github.com/PabloPavan/sniply/internal/users"
)

type userStoreStub struct {
	getFn func(ctx context.Context, email string) (users.User, error)
}

func (u *userStoreStub) GetByEmail(ctx context.Context, email string) (users.User, error) {
	if u.getFn != nil {
		return u.getFn(ctx, email)
	}
	return users.User{}, users.ErrNotFound
}

type sessionStub struct {
	createFn  func(ctx context.Context, userID, role string) (*session.Session, error)
	getFn     func(ctx context.Context, id string) (*session.Session, error)
	refreshFn func(ctx context.Context, sess *session.Session) (*session.Session, bool, error)
	deleteFn  func(ctx context.Context, id string) error
	revokeFn  func(ctx context.Context, userID string) (int, error)
}

func (s *sessionStub) Create(ctx context.Context, userID, role string) (*session.Session, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID, role)
	}
	return nil, errors.New("not implemented")
}

func (s *sessionStub) Get(ctx context.Context, id string) (*session.Session, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, session.ErrNotFound
}

func (s *sessionStub) Refresh(ctx context.Context, sess *session.Session) (*session.Session, bool, error) {
	if s.refreshFn != nil {
		return s.refreshFn(ctx, sess)
	}
	return sess, false, nil
}

func (s *sessionStub) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *sessionStub) RevokeUser(ctx context.Context, userID string) (int, error) {
	if s.revokeFn != nil {
		return s.revokeFn(ctx, userID)
	}
	return 0, nil
}

func TestServiceLoginInvalidEmail(t *testing.T) {
	store := &userStoreStub{}
	sessions := &sessionStub{}
	svc := &Service{Users: store, Sessions: sessions}

	_, err := svc.Login(context.Background(), LoginInput{Email: "invalid", Password: "x"})
	assertKind(t, err, apperrors.KindInvalidInput)
}

func TestServiceLoginSuccess(t *testing.T) {
	store := &userStoreStub{}
	sessions := &sessionStub{}

	store.getFn = func(ctx context.Context, email string) (users.User, error) {
		return users.User{ID: "usr_1", Email: "user@local", PasswordHash: "hash", Role: users.RoleAdmin}, nil
	}

	expiresAt := time.Now().Add(time.Hour)
	sessions.createFn = func(ctx context.Context, userID, role string) (*session.Session, error) {
		return &session.Session{
			ID:        "ses_1",
			UserID:    userID,
			Role:      role,
			CSRFToken: "csrf",
			ExpiresAt: expiresAt,
		}, nil
	}

	svc := &Service{
		Users:    store,
		Sessions: sessions,
		PasswordVerifier: func(hashed, plain string) error {
			if hashed != "hash" || plain != "pass" {
				return errors.New("mismatch")
			}
			return nil
		},
	}

	res, err := svc.Login(context.Background(), LoginInput{Email: "USER@LOCAL", Password: "pass"})
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if res.UserID != "usr_1" {
		t.Fatalf("unexpected user id: %s", res.UserID)
	}
	if res.Session.CSRFToken != "csrf" {
		t.Fatalf("unexpected csrf token: %s", res.Session.CSRFToken)
	}
}

func TestServiceAuthenticateSessionForbidden(t *testing.T) {
	sessions := &sessionStub{}
	svc := &Service{Sessions: sessions}

	sessions.getFn = func(ctx context.Context, id string) (*session.Session, error) {
		return &session.Session{ID: id, UserID: "usr_1", Role: "user", CSRFToken: "csrf"}, nil
	}
	sessions.refreshFn = func(ctx context.Context, sess *session.Session) (*session.Session, bool, error) {
		return sess, false, nil
	}

	_, _, err := svc.AuthenticateSession(context.Background(), "ses_1", "bad", "POST")
	assertKind(t, err, apperrors.KindForbidden)
}

func TestServiceAuthenticateSessionSafeMethodSkipsCSRF(t *testing.T) {
	sessions := &sessionStub{}
	svc := &Service{Sessions: sessions}

	sessions.getFn = func(ctx context.Context, id string) (*session.Session, error) {
		return &session.Session{ID: id, UserID: "usr_1", Role: "user", CSRFToken: "csrf"}, nil
	}
	sessions.refreshFn = func(ctx context.Context, sess *session.Session) (*session.Session, bool, error) {
		return sess, true, nil
	}

	info, refreshed, err := svc.AuthenticateSession(context.Background(), "ses_1", "", "GET")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !refreshed || info.UserID != "usr_1" || info.Role != "user" {
		t.Fatalf("unexpected session info: %+v refreshed=%v", info, refreshed)
	}
}

func TestServiceAuthenticateSessionMissing(t *testing.T) {
	svc := &Service{Sessions: &sessionStub{}}

	_, _, err := svc.AuthenticateSession(context.Background(), "", "", "GET")
	assertKind(t, err, apperrors.KindUnauthorized)

	_, _, err = svc.AuthenticateSession(context.Background(), "ses_gone", "", "GET")
	assertKind(t, err, apperrors.KindUnauthorized)
}

type limiterStub struct {
	keys    []string
	blocked string
}

func (l *limiterStub) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	if key == l.blocked {
		return false, 30 * time.Second, nil
	}
	return true, 0, nil
}

func TestServiceLoginRateLimited(t *testing.T) {
	limiter := &limiterStub{blocked: "login:email:user@local"}
	svc := &Service{Users: &userStoreStub{}, Sessions: &sessionStub{}, LoginLimiter: limiter}

	_, err := svc.Login(context.Background(), LoginInput{Email: "user@local", Password: "x", ClientIP: "10.0.0.1"})
	assertKind(t, err, apperrors.KindRateLimited)

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.RetryAfter != 30*time.Second {
		t.Fatalf("expected retry after, got %v", err)
	}
	if len(limiter.keys) != 2 || limiter.keys[0] != "login:ip:10.0.0.1" {
		t.Fatalf("unexpected limiter keys: %v", limiter.keys)
	}
}

func TestServiceLoginUnknownUser(t *testing.T) {
	svc := &Service{Users: &userStoreStub{}, Sessions: &sessionStub{}}

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@local", Password: "x"})
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceLogout(t *testing.T) {
	var deleted string
	svc := &Service{Sessions: &sessionStub{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}}

	if err := svc.Logout(context.Background(), "  "); err != nil {
		t.Fatalf("blank logout: %v", err)
	}
	if deleted != "" {
		t.Fatalf("blank session id must not hit the store")
	}
	if err := svc.Logout(context.Background(), "ses_1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if deleted != "ses_1" {
		t.Fatalf("unexpected deleted id: %q", deleted)
	}
}

func TestServiceLogoutEverywhere(t *testing.T) {
	var revoked string
	svc := &Service{Sessions: &sessionStub{
		revokeFn: func(ctx context.Context, userID string) (int, error) {
			revoked = userID
			return 3, nil
		},
	}}

	_, err := svc.LogoutEverywhere(context.Background())
	assertKind(t, err, apperrors.KindUnauthorized)

	n, err := svc.LogoutEverywhere(identity.WithUser(context.Background(), "usr_1", "user"))
	if err != nil {
		t.Fatalf("logout everywhere: %v", err)
	}
	if n != 3 || revoked != "usr_1" {
		t.Fatalf("unexpected revocation: n=%d user=%q", n, revoked)
	}
}

func TestServiceLoginDefaultsUnknownRole(t *testing.T) {
	var gotRole string
	svc := &Service{
		Users: &userStoreStub{getFn: func(ctx context.Context, email string) (users.User, error) {
			return users.User{ID: "usr_1", PasswordHash: "hash", Role: users.UserRole("")}, nil
		}},
		Sessions: &sessionStub{createFn: func(ctx context.Context, userID, role string) (*session.Session, error) {
			gotRole = role
			return &session.Session{ID: "ses_1", UserID: userID, Role: role}, nil
		}},
		PasswordVerifier: func(hashed, plain string) error { return nil },
	}

	res, err := svc.Login(context.Background(), LoginInput{Email: "a@local", Password: "pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if gotRole != "user" || res.UserRole != "user" {
		t.Fatalf("expected user role, got session=%q result=%q", gotRole, res.UserRole)
	}
}

func TestServiceAuthenticateSessionRejectsMissingCSRF(t *testing.T) {
	svc := &Service{Sessions: &sessionStub{getFn: func(ctx context.Context, id string) (*session.Session, error) {
		return &session.Session{ID: id, UserID: "usr_1", CSRFToken: "csrf"}, nil
	}}}

	_, _, err := svc.AuthenticateSession(context.Background(), "ses_1", "", "PUT")
	assertKind(t, err, apperrors.KindForbidden)

	_, _, err = svc.AuthenticateSession(context.Background(), "ses_1", "csrf", "PUT")
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
}

func TestLoginKeys(t *testing.T) {
	if got := loginKeys("a@local", ""); len(got) != 1 || got[0] != "login:email:a@local" {
		t.Fatalf("unexpected keys without ip: %v", got)
	}
	if got := loginKeys("a@local", " 10.0.0.1 "); len(got) != 2 || got[0] != "login:ip:10.0.0.1" {
		t.Fatalf("unexpected keys with ip: %v", got)
	}
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error kind %s", kind)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got: %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("unexpected kind: %s", appErr.Kind)
	}
}
