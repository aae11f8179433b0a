package memory

import (
	"context"
	"sync"
	"time"

	"dreamsite/internal/gateway"
)

// SessionStore keeps gateway sessions in a map. Like the redis store, it
// drops a session once it is stale.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]gateway.Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]gateway.Session), now: time.Now}
}

func (s *SessionStore) Load(ctx context.Context, key string) (*gateway.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := gateway.StorageKey(key)
	sess, ok := s.sessions[k]
	if !ok {
		return nil, gateway.ErrSessionNotFound
	}
	if sess.Stale(s.now()) {
		delete(s.sessions, k)
		return nil, gateway.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, key string, sess *gateway.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, held := range s.sessions {
		if held.Stale(now) {
			delete(s.sessions, k)
		}
	}
	if sess.Stale(now) {
		delete(s.sessions, gateway.StorageKey(key))
		return nil
	}
	s.sessions[gateway.StorageKey(key)] = *sess
	return nil
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, gateway.StorageKey(key))
	return nil
}
