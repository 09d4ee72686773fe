package checkpoint

import (
	"context"
	"sync"
)

// Memory is a Store that keeps checkpoints in process memory. It survives a
// failed run but not a process restart.
type Memory struct {
	mu          sync.Mutex
	checkpoints map[string]Checkpoint
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{checkpoints: make(map[string]Checkpoint)}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, runID string) (Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[runID]
	if !ok {
		return Checkpoint{}, ErrNotFound
	}
	return cp, nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cp.RunID] = cp
	return nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checkpoints, runID)
	return nil
}
