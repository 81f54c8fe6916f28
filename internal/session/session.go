package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/PabloPavan/sniply/internal"
)

var (
	ErrNotFound = errors.New("session not found")
	errNoStore  = errors.New("session store not configured")
)

type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Role            string    `json:"role"`
	CSRFToken       string    `json:"csrf_token"`
	CreatedAt       time.Time `json:"created_at"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the sliding expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// VerifyCSRF compares token with the one issued at login in constant time.
// An empty token never matches.
func (s *Session) VerifyCSRF(token string) bool {
	if token == "" || s.CSRFToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.CSRFToken)) == 1
}

type Store interface {
	Set(ctx context.Context, id string, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser drops every session of userID and returns how many existed.
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// Manager issues sessions with a sliding expiry: every Refresh inside
// RefreshBefore of ExpiresAt pushes it TTL ahead, up to MaxAge after creation.
type Manager struct {
	Store         Store
	TTL           time.Duration
	MaxAge        time.Duration
	RefreshBefore time.Duration
	IDBytes       int
	Now           func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

const (
	defaultIDBytes = 32
	csrfBytes      = 16
)

func (m *Manager) Create(ctx context.Context, userID, role string) (*Session, error) {
	if m.Store == nil {
		return nil, errNoStore
	}
	idBytes := m.IDBytes
	if idBytes <= 0 {
		idBytes = defaultIDBytes
	}
	now := m.now()
	sess := &Session{
		ID:              "ses_" + internal.RandomHex(idBytes),
		UserID:          userID,
		Role:            role,
		CSRFToken:       internal.RandomHex(csrfBytes),
		CreatedAt:       now,
		LastRefreshedAt: now,
		ExpiresAt:       now.Add(m.TTL),
	}
	if err := m.Store.Set(ctx, sess.ID, *sess, m.TTL); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if m.Store == nil {
		return nil, errNoStore
	}
	sess, err := m.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.checkAge(ctx, sess, m.now()); err != nil {
		return nil, err
	}
	return sess, nil
}

// checkAge drops sess from the store once it outlived MaxAge.
func (m *Manager) checkAge(ctx context.Context, sess *Session, now time.Time) error {
	m.backfill(sess, now)
	if !m.pastMaxAge(sess, now) {
		return nil
	}
	_ = m.Store.Delete(ctx, sess.ID)
	return ErrNotFound
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.Store == nil {
		return errNoStore
	}
	return m.Store.Delete(ctx, id)
}

// RevokeUser signs userID out of every session it holds.
func (m *Manager) RevokeUser(ctx context.Context, userID string) (int, error) {
	if m.Store == nil {
		return 0, errNoStore
	}
	if userID == "" {
		return 0, nil
	}
	return m.Store.DeleteByUser(ctx, userID)
}

// Refresh slides the expiry of sess when it is within RefreshBefore of
// expiring. refreshed reports that the stored record and cookie changed.
func (m *Manager) Refresh(ctx context.Context, sess *Session) (_ *Session, refreshed bool, _ error) {
	switch {
	case m.Store == nil:
		return nil, false, errNoStore
	case sess == nil:
		return nil, false, errors.New("session not provided")
	case m.TTL <= 0:
		return sess, false, nil
	}

	now := m.now()
	if err := m.checkAge(ctx, sess, now); err != nil {
		return nil, false, err
	}
	if !m.dueForRefresh(sess, now) {
		return sess, false, nil
	}

	sess.ExpiresAt = now.Add(m.TTL)
	sess.LastRefreshedAt = now
	if err := m.Store.Set(ctx, sess.ID, *sess, m.TTL); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

func (m *Manager) dueForRefresh(sess *Session, now time.Time) bool {
	return m.RefreshBefore <= 0 || sess.ExpiresAt.Sub(now) <= m.RefreshBefore
}

func (m *Manager) pastMaxAge(sess *Session, now time.Time) bool {
	return m.MaxAge > 0 && now.After(sess.CreatedAt.Add(m.MaxAge))
}

// backfill derives timestamps missing from records written before they existed.
func (m *Manager) backfill(sess *Session, now time.Time) {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
		if m.TTL > 0 && !sess.ExpiresAt.IsZero() {
			if created := sess.ExpiresAt.Add(-m.TTL); created.Before(now) {
				sess.CreatedAt = created
			}
		}
	}
	if sess.LastRefreshedAt.IsZero() {
		sess.LastRefreshedAt = sess.CreatedAt
	}
}
