package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps encoded states in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*ConversationState, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, ErrInvalidSession
	}

	m.mu.RLock()
	payload, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeState(payload)
}

func (m *MemoryStore) Save(ctx context.Context, st *ConversationState) error {
	payload, err := encodeState(st)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.items[st.ID] = payload
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}
