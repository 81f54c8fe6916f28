package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PabloPavan/sniply/internal/auth"
	"github.com/PabloPavan/sniply/internal/session"
	"github.com/PabloPavan/sniply/internal/telemetry"
)

type AuthService interface {
	Login(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	LogoutEverywhere(ctx context.Context) (int, error)
	AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (auth.SessionInfo, bool, error)
}

type AuthHandler struct {
	Service AuthService
	Cookie  session.CookieConfig
}

type LoginResponse struct {
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	Role             string `json:"role"`
	CSRFToken        string `json:"csrf_token"`
	SessionExpiresAt string `json:"session_expires_at"` // RFC3339
}

// Login Auth
// @Summary Login
// @Description Sets the session cookie. Send csrf_token back as X-CSRF-Token on unsafe methods.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginDTO true "credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 429 {string} string
// @Failure 500 {string} string
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginDTO
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.Cookie.Write(w, res.Session.ID, res.Session.ExpiresAt)

	telemetry.LogInfo(r.Context(), "user login",
		telemetry.LogString("event", "user.login"),
		telemetry.LogString("user.id", res.UserID),
	)

	writeJSON(w, http.StatusOK, LoginResponse{
		UserID:           res.UserID,
		Username:         res.Username,
		Role:             res.UserRole,
		CSRFToken:        res.Session.CSRFToken,
		SessionExpiresAt: res.Session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout Auth
// @Summary Logout
// @Tags auth
// @Success 204
// @Failure 500 {string} string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := h.Cookie.Read(r); sessionID != "" {
		if err := h.Service.Logout(r.Context(), sessionID); err != nil {
			writeAppError(w, r, err)
			return
		}
	}

	h.Cookie.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type LogoutEverywhereResponse struct {
	Revoked int `json:"revoked"`
}

// LogoutEverywhere Auth
// @Summary Logout from every device
// @Description Ends all sessions of the caller, including the current one.
// @Tags auth
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} LogoutEverywhereResponse
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 500 {string} string
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutEverywhere(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.LogoutEverywhere(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.Cookie.Clear(w)
	writeResult(w, r, LogoutEverywhereResponse{Revoked: n}, nil)
}

// clientIP expects middleware.RealIP to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
