// Package state provides snapshot-store backends for session state:
// an in-memory store for tests and a JSON file store for production.
// Both are best effort — losing a snapshot loses convenience, not data
// of record.
package state

import (
	"encoding/json"
	"sync"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
)

// Memory keeps the snapshot in process memory. Round-trips through JSON
// so tests observe the same serialization behavior as the file store.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory creates an empty in-memory snapshot store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save serializes and keeps the snapshot.
func (m *Memory) Save(snapshot *domain.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

// Load returns the last saved snapshot, or (nil, nil) when none exists.
func (m *Memory) Load() (*domain.SessionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(m.data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
