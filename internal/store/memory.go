package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and throwaway runs.
// SaveErr, when set, is returned by Save without touching the snapshot.
type Memory struct {
	mu       sync.Mutex
	snapshot []byte
	present  bool
	saves    int

	SaveErr error
	LoadErr error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Seed replaces the stored snapshot directly, bypassing Save accounting.
func (m *Memory) Seed(snapshot []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = append([]byte(nil), snapshot...)
	m.present = true
}

func (m *Memory) Load(context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, false, m.LoadErr
	}
	if !m.present {
		return nil, false, nil
	}
	return append([]byte(nil), m.snapshot...), true, nil
}

func (m *Memory) Save(_ context.Context, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.snapshot = append([]byte(nil), snapshot...)
	m.present = true
	m.saves++
	return nil
}

func (m *Memory) Close() error { return nil }

// Saves reports how many successful saves have happened.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Snapshot returns the current stored payload, if any.
func (m *Memory) Snapshot() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return nil, false
	}
	return append([]byte(nil), m.snapshot...), true
}
