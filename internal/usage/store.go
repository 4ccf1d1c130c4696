package usage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Retention is how long finished session summaries are kept.
const Retention = 24 * time.Hour

// Store keeps finished session summaries.
//
// Get returns (nil, nil) when the session does not exist or has expired.
// Save replaces any existing summary with the same id.
type Store interface {
	Save(ctx context.Context, s Summary) error
	Get(ctx context.Context, sessionID string) (*Summary, error)
}

// MemoryStore is an in-process Store. Entries older than Retention
// (measured from the session start) are evicted on every Save and by Janitor.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Summary
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Summary),
		now:      time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.evictLocked()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || m.expired(s) {
		return nil, nil
	}
	return &s, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Cleanup removes expired sessions and returns how many were removed.
func (m *MemoryStore) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictLocked()
}

// Janitor runs Cleanup every interval until ctx is cancelled.
func (m *MemoryStore) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				log.Debug().Int("evicted", n).Msg("Usage sessions evicted")
			}
		}
	}
}

func (m *MemoryStore) expired(s Summary) bool {
	return time.UnixMilli(s.StartTime).Before(m.now().Add(-Retention))
}

func (m *MemoryStore) evictLocked() int {
	n := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
