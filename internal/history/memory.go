package history

import (
	"context"
	"sync"
	"time"

	"OISentinel/internal/model"
)

// MemoryStore keeps the watchlist in process memory. It is used for dry runs
// and tests.
type MemoryStore struct {
	Now Clock

	mu        sync.Mutex
	entries   model.Watchlist
	updatedAt time.Time
	saves     int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{Now: time.Now} }

func (m *MemoryStore) Load(_ context.Context) (model.Watchlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := &snapshot{Entries: m.entries, UpdatedAt: m.updatedAt}
	return snap.watchlist(m.Now()), nil
}

func (m *MemoryStore) Save(_ context.Context, w model.Watchlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = w.Clone()
	m.updatedAt = m.Now()
	m.saves++
	return nil
}

// Seed sets the stored mapping as if it had been written at updatedAt.
func (m *MemoryStore) Seed(w model.Watchlist, updatedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = w.Clone()
	m.updatedAt = updatedAt
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Snapshot returns the stored mapping regardless of expiry.
func (m *MemoryStore) Snapshot() model.Watchlist {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Clone()
}

func (m *MemoryStore) Close() error { return nil }
