package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps sessions in process. Sessions are copied on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*UpstashRedisStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return sess.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, sess *Session) error {
	if err := prepareForSave(sess); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
