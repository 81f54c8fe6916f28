package session

import (
	"net/http"
	"time"
)

const DefaultCookieName = "sniply_session"

// CookieConfig shapes the session cookie. Zero Name and Path fall back to
// DefaultCookieName and "/".
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

// Read returns the session id sent with r, or "" when there is none.
func (c CookieConfig) Read(r *http.Request) string {
	ck, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return ck.Value
}

// Write hands sessionID to the client until expiresAt.
func (c CookieConfig) Write(w http.ResponseWriter, sessionID string, expiresAt time.Time) {
	ck := c.cookie(sessionID)
	ck.Expires = expiresAt
	ck.MaxAge = int(time.Until(expiresAt).Seconds())
	http.SetCookie(w, ck)
}

func (c CookieConfig) Clear(w http.ResponseWriter) {
	ck := c.cookie("")
	ck.Expires = time.Unix(0, 0)
	ck.MaxAge = -1
	http.SetCookie(w, ck)
}

func (c CookieConfig) cookie(value string) *http.Cookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     c.name(),
		Value:    value,
		Path:     path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	}
}
