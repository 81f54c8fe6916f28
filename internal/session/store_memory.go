package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess     Session
	deadline time.Time
}

// MemoryStore keeps sessions in process. Entries die at the earlier of the
// session expiry and the ttl given to Set.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[string]memoryEntry
	byUser map[string]map[string]struct{}
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]memoryEntry),
		byUser: make(map[string]map[string]struct{}),
		now:    time.Now,
	}
}

func (s *MemoryStore) Set(_ context.Context, id string, sess Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{sess: sess}
	if ttl > 0 {
		e.deadline = s.now().Add(ttl)
	}
	if old, ok := s.items[id]; ok && old.sess.UserID != sess.UserID {
		s.unindex(old.sess.UserID, id)
	}
	s.items[id] = e
	if sess.UserID != "" {
		ids := s.byUser[sess.UserID]
		if ids == nil {
			ids = make(map[string]struct{})
			s.byUser[sess.UserID] = ids
		}
		ids[id] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	if e.sess.Expired(now) || (!e.deadline.IsZero() && now.After(e.deadline)) {
		s.remove(id)
		return nil, ErrNotFound
	}
	sess := e.sess
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
	return nil
}

func (s *MemoryStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id := range s.byUser[userID] {
		if _, ok := s.items[id]; ok {
			delete(s.items, id)
			n++
		}
	}
	delete(s.byUser, userID)
	return n, nil
}

func (s *MemoryStore) remove(id string) {
	if e, ok := s.items[id]; ok {
		delete(s.items, id)
		s.unindex(e.sess.UserID, id)
	}
}

func (s *MemoryStore) unindex(userID, id string) {
	ids := s.byUser[userID]
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.byUser, userID)
	}
}
