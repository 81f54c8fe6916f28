package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/session"
	"github.com/PabloPavan/sniply/internal/telemetry"
	"github.com/PabloPavan/sniply/internal/users"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID, role string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Refresh(ctx context.Context, sess *session.Session) (*session.Session, bool, error)
	Delete(ctx context.Context, id string) error
	RevokeUser(ctx context.Context, userID string) (int, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Service struct {
	Users            UserStore
	Sessions         SessionManager
	LoginLimiter     RateLimiter
	PasswordVerifier func(hashed, plain string) error
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientIP string `json:"-"`
}

// SessionInfo is the part of a session the HTTP layer needs: the id for the
// cookie, the identity for handlers and the token unsafe requests must echo.
type SessionInfo struct {
	ID        string
	UserID    string
	Role      string
	CSRFToken string
	ExpiresAt time.Time
}

func infoOf(s *session.Session) SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		UserID:    s.UserID,
		Role:      s.Role,
		CSRFToken: s.CSRFToken,
		ExpiresAt: s.ExpiresAt,
	}
}

type LoginResult struct {
	UserID    string
	UserEmail string
	Username  string
	UserRole  string
	Session   SessionInfo
}

var errInvalidCredentials = apperrors.New(apperrors.KindUnauthorized, "invalid credentials")

func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	if s.Users == nil || s.Sessions == nil {
		return LoginResult{}, apperrors.New(apperrors.KindInternal, "auth not configured")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := strings.TrimSpace(input.Password)
	switch {
	case email == "" || password == "":
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "email and password are required")
	case !strings.Contains(email, "@"):
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "invalid email")
	}

	if err := s.throttle(ctx, loginKeys(email, input.ClientIP)); err != nil {
		return LoginResult{}, err
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if !users.IsNotFound(err) {
			telemetry.LogError(ctx, "login user lookup failed", telemetry.LogErr(err))
		}
		return LoginResult{}, errInvalidCredentials
	}
	if err := s.verify(u.PasswordHash, password); err != nil {
		telemetry.LogWarn(ctx, "login rejected",
			telemetry.LogString("event", "auth.login_failed"),
			telemetry.LogString("user.id", u.ID),
		)
		return LoginResult{}, errInvalidCredentials
	}

	role := u.Role
	if !role.Valid() {
		role = users.RoleUser
	}
	sess, err := s.Sessions.Create(ctx, u.ID, string(role))
	if err != nil {
		return LoginResult{}, apperrors.Wrap(apperrors.KindInternal, "failed to create session", err)
	}

	return LoginResult{
		UserID:    u.ID,
		UserEmail: u.Email,
		Username:  u.Username,
		UserRole:  string(role),
		Session:   infoOf(sess),
	}, nil
}

// loginKeys lists the rate limit buckets of an attempt, client address first.
func loginKeys(email, clientIP string) []string {
	var keys []string
	if ip := strings.TrimSpace(clientIP); ip != "" {
		keys = append(keys, "login:ip:"+ip)
	}
	return append(keys, "login:email:"+email)
}

func (s *Service) throttle(ctx context.Context, keys []string) error {
	if s.LoginLimiter == nil {
		return nil
	}
	for _, key := range keys {
		allowed, retryAfter, err := s.LoginLimiter.Allow(ctx, key)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "rate limit error", err)
		}
		if !allowed {
			return apperrors.RateLimit("too many requests", retryAfter)
		}
	}
	return nil
}

func (s *Service) verify(hashed, plain string) error {
	if s.PasswordVerifier != nil {
		return s.PasswordVerifier(hashed, plain)
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if s.Sessions == nil {
		return apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to logout", err)
	}
	return nil
}

// LogoutEverywhere ends every session of the caller, the current one included.
func (s *Service) LogoutEverywhere(ctx context.Context) (int, error) {
	if s.Sessions == nil {
		return 0, apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	userID, ok := identity.Authenticated(ctx)
	if !ok {
		return 0, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	n, err := s.Sessions.RevokeUser(ctx, userID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindInternal, "failed to logout", err)
	}
	telemetry.LogInfo(ctx, "user logged out everywhere",
		telemetry.LogString("event", "session.revoked"),
		telemetry.LogString("user.id", userID),
		telemetry.LogInt("session.count", n),
	)
	return n, nil
}

// AuthenticateSession validates sessionID and, for unsafe methods, the CSRF
// token bound to it. refreshed reports that the expiry moved and the cookie
// must be rewritten.
func (s *Service) AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (SessionInfo, bool, error) {
	if s.Sessions == nil {
		return SessionInfo{}, false, apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return SessionInfo{}, false, apperrors.New(apperrors.KindUnauthorized, "missing session")
	}

	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if !safeMethods[method] && !sess.VerifyCSRF(csrfToken) {
		return SessionInfo{}, false, apperrors.New(apperrors.KindForbidden, "forbidden")
	}

	sess, refreshed, err := s.Sessions.Refresh(ctx, sess)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return SessionInfo{}, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	case err != nil:
		return SessionInfo{}, false, apperrors.Wrap(apperrors.KindInternal, "failed to refresh session", err)
	}
	return infoOf(sess), refreshed, nil
}

// safeMethods skip the CSRF check; they must not change state.
var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}
