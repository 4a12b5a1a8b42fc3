package state

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is the default in-process store. Dialog state is transient
// and vanishes on restart.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]Session
	users       map[string]UserRecord
	idleTimeout time.Duration
}

func NewInMemoryStore(idleTimeout time.Duration) *InMemoryStore {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &InMemoryStore{
		sessions:    make(map[string]Session),
		users:       make(map[string]UserRecord),
		idleTimeout: idleTimeout,
	}
}

func (s *InMemoryStore) GetSession(_ context.Context, conversationID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[conversationID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *InMemoryStore) PutSession(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	s.sessions[sess.ConversationID] = sess
	return nil
}

func (s *InMemoryStore) DeleteSession(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, conversationID)
	return nil
}

func (s *InMemoryStore) GetUser(_ context.Context, userID string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return UserRecord{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) PutUser(_ context.Context, u UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.LastActivityAt.IsZero() {
		u.LastActivityAt = time.Now().UTC()
	}
	s.users[u.UserID] = u
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// SessionCount reports the number of tracked conversations.
func (s *InMemoryStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartJanitor periodically drops conversations that have been idle longer
// than the configured timeout.
func (s *InMemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.expireIdle()
			}
		}
	}()
}

func (s *InMemoryStore) expireIdle() {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) >= s.idleTimeout {
			delete(s.sessions, id)
		}
	}
}
