package cache

import (
	"fmt"
	"sync"
	"time"
)

// Entry is a cached value with its storage time and lifetime.
type Entry[T any] struct {
	Value    T
	StoredAt time.Time
	TTL      time.Duration
}

func (e Entry[T]) expired(now time.Time) bool {
	return now.Sub(e.StoredAt) >= e.TTL
}

// Store is a process-wide expiring key-value namespace. An expired entry is
// indistinguishable from a miss; callers refetch and overwrite. Writes are
// atomic replacements, so two concurrent requests refetching the same key is
// harmless (last write wins, no torn entries).
type Store[T any] struct {
	mu         sync.RWMutex
	entries    map[string]Entry[T]
	defaultTTL time.Duration
	now        func() time.Time
}

func New[T any](defaultTTL time.Duration) *Store[T] {
	return &Store[T]{
		entries:    make(map[string]Entry[T]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the cached value for key, or a miss when absent or expired.
// Expired entries are evicted lazily here; there is no background sweeper.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if entry.expired(s.now()) {
		s.mu.Lock()
		// Re-check: the entry may have been overwritten since the read lock.
		if cur, ok := s.entries[key]; ok && cur.expired(s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}
	return entry.Value, true
}

// Put stores value under key with the namespace default TTL.
func (s *Store[T]) Put(key string, value T) {
	s.PutTTL(key, value, s.defaultTTL)
}

// PutTTL stores value under key with an explicit TTL.
func (s *Store[T]) PutTTL(key string, value T, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = Entry[T]{Value: value, StoredAt: s.now(), TTL: ttl}
	s.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Key builds the canonical cache key for a query result.
func Key(address, chainID, endpointKind string) string {
	return fmt.Sprintf("%s:%s:%s", address, chainID, endpointKind)
}
