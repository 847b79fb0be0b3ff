package social

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore serves metadata from an in-memory map. Unknown ids return
// ErrPostNotFound.
type MemoryStore struct {
	mu       sync.RWMutex
	metadata map[string]json.RawMessage
}

// NewMemoryStore constructs a store seeded with metadata.
func NewMemoryStore(seed map[string]json.RawMessage) *MemoryStore {
	store := &MemoryStore{metadata: make(map[string]json.RawMessage, len(seed))}
	for id, payload := range seed {
		store.metadata[id] = append(json.RawMessage(nil), payload...)
	}
	return store
}

// GetMetadataByID returns the stored metadata for id.
func (s *MemoryStore) GetMetadataByID(ctx context.Context, id string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.metadata[id]
	if !ok {
		return nil, notFoundError(id)
	}
	return append(json.RawMessage(nil), payload...), nil
}

// Put stores metadata for id.
func (s *MemoryStore) Put(id string, payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[id] = append(json.RawMessage(nil), payload...)
}
