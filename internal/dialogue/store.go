package dialogue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned by Store.Get when a session has no
// dialogue state.
var ErrSessionNotFound = errors.New("dialogue: session not found")

// Store holds dialogue state per session key. Implementations must be safe
// for concurrent use and must return copies so callers never share state.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Put(ctx context.Context, sessionID string, st *State) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-process Store. Entries idle for longer than the idle
// timeout are treated as absent and removed by Sweep.
type MemoryStore struct {
	idle time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates a MemoryStore. An idle timeout <= 0 disables expiry.
func NewMemoryStore(idle time.Duration) *MemoryStore {
	return &MemoryStore{
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*State),
	}
}

func (m *MemoryStore) expired(st *State, now time.Time) bool {
	return m.idle > 0 && now.Sub(st.UpdatedAt) > m.idle
}

// Get returns a copy of the session's state.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	m.mu.RLock()
	st, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok || m.expired(st, m.now()) {
		return nil, ErrSessionNotFound
	}
	return st.Clone(), nil
}

// Put stores a copy of st and refreshes its idle clock.
func (m *MemoryStore) Put(_ context.Context, sessionID string, st *State) error {
	c := st.Clone()
	c.UpdatedAt = m.now()
	m.mu.Lock()
	m.sessions[sessionID] = c
	m.mu.Unlock()
	return nil
}

// Delete removes the session's state. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Clear removes every session.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.sessions = make(map[string]*State)
	m.mu.Unlock()
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, st := range m.sessions {
		if m.expired(st, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
