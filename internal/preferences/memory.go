package preferences

import (
	"context"
	"sync"
)

// MemoryBackend is a process-local Backend used in tests and in deployments
// that do not need durable preferences.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]*UserPreferences
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]*UserPreferences)}
}

// Load returns a copy of the stored record, or (nil, nil) when absent.
func (m *MemoryBackend) Load(_ context.Context, userID string) (*UserPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[userID].Clone(), nil
}

// Save stores a copy of the record.
func (m *MemoryBackend) Save(_ context.Context, userID string, prefs *UserPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[userID] = prefs.Clone()
	return nil
}

// Len returns the number of stored records.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
