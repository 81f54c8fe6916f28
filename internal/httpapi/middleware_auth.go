package httpapi

import (
	"context"
	"net/http"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/auth"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/session"
)

type Authenticator interface {
	AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (auth.SessionInfo, bool, error)
}

type AuthOptions struct {
	Cookie session.CookieConfig
	// Optional lets requests without a valid session through anonymously.
	Optional bool
}

const csrfHeader = "X-CSRF-Token"

// AuthMiddleware resolves the session cookie into an identity on the request
// context and rewrites the cookie when the session expiry slid forward.
func AuthMiddleware(authenticator Authenticator, opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil {
				writeAppError(w, r, errAuthNotConfigured)
				return
			}

			sessionID := opts.Cookie.Read(r)
			anonymous := sessionID == ""
			var (
				sess      auth.SessionInfo
				refreshed bool
				err       error
			)
			if !anonymous {
				sess, refreshed, err = authenticator.AuthenticateSession(r.Context(), sessionID, r.Header.Get(csrfHeader), r.Method)
				anonymous = err != nil
			}

			switch {
			case anonymous && opts.Optional:
				next.ServeHTTP(w, r)
				return
			case anonymous && err == nil:
				writeAppError(w, r, errMissingSession)
				return
			case err != nil:
				writeAppError(w, r, err)
				return
			}

			if refreshed {
				opts.Cookie.Write(w, sess.ID, sess.ExpiresAt)
			}
			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), sess.UserID, sess.Role)))
		})
	}
}

var (
	errAuthNotConfigured = apperrors.New(apperrors.KindInternal, "auth not configured")
	errMissingSession    = apperrors.New(apperrors.KindUnauthorized, "missing session")
)
