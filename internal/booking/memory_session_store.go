package booking

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	policy ExpiryPolicy

	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore(policy ExpiryPolicy) *MemorySessionStore {
	return &MemorySessionStore{
		policy:   policy,
		sessions: make(map[string]*Session),
	}
}

func (m *MemorySessionStore) Put(ctx context.Context, s *Session) error {
	cp := *s
	m.mu.Lock()
	m.sessions[s.ConversationID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[conversationID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemorySessionStore) Take(ctx context.Context, conversationID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[conversationID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, conversationID)
	return s, nil
}

func (m *MemorySessionStore) ExpiredIDs(ctx context.Context, maxAge time.Duration, now time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, s := range m.sessions {
		if m.policy.Expired(s, maxAge, now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemorySessionStore) DeleteIfExpired(ctx context.Context, conversationID string, maxAge time.Duration, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[conversationID]
	if !ok || !m.policy.Expired(s, maxAge, now) {
		return false, nil
	}
	delete(m.sessions, conversationID)
	return true, nil
}

// Len reports the number of live sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
