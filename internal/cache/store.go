package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long an entry lives after it was written
const DefaultTTL = time.Hour

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-memory key-value store whose entries expire a fixed time
// after they were written. Reads never extend an entry's life.
type Store[V any] struct {
	ttl     time.Duration
	entries map[string]entry[V]
	lock    sync.RWMutex
	now     func() time.Time
}

// New creates a store; a non-positive ttl falls back to DefaultTTL
func New[V any](ttl time.Duration) *Store[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired
func (s *Store[V]) Get(key string) (V, bool) {
	s.lock.RLock()
	e, ok := s.entries[key]
	s.lock.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set writes value under key, restarting its expiry
func (s *Store[V]) Set(key string, value V) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
}

func (s *Store[V]) Delete(key string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.entries, key)
}

// Clear drops every entry
func (s *Store[V]) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries = make(map[string]entry[V])
}

// Purge removes expired entries and returns how many were dropped
func (s *Store[V]) Purge() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, including expired ones not yet purged
func (s *Store[V]) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}
