package counter

import (
	"context"
	"sync"
	"time"

	"github.com/codequest-labs/codequest/internal/clock"
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]memoryEntry
}

// NewMemoryStore returns an in-process counter store. It is the fallback when
// Redis is not configured or unreachable, and the default in tests.
func NewMemoryStore(clk clock.Clock) Store {
	return &memoryStore{clock: clk, entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = memoryEntry{count: 0, expiresAt: now.Add(ttl)}
	}
	entry.count++
	s.entries[key] = entry

	// drop dead keys opportunistically
	if len(s.entries) > 1024 {
		for k, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, k)
			}
		}
	}

	return entry.count, nil
}
