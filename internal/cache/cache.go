// Package cache stores aggregated evidence bundles for a freshness window so
// repeated questions do not re-query every provider.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/internal/intent"
)

const DefaultTTL = 30 * time.Minute

// Key identifies one aggregation. The query is kept exactly as received;
// no trimming or case folding.
type Key struct {
	Intent intent.Intent
	Query  string
}

// Store is a pluggable evidence cache. Backends swallow their own failures:
// a broken backend reads as a miss and drops writes.
type Store interface {
	Name() string
	Get(ctx context.Context, key Key) (evidence.Bundle, bool)
	Set(ctx context.Context, key Key, bundle evidence.Bundle)
}

type entry struct {
	bundle   evidence.Bundle
	storedAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are never swept;
// they stop being served once now-storedAt reaches the TTL and are
// overwritten by the next Set for the same key.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[Key]entry
}

type Option func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(ttl time.Duration, opts ...Option) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Key]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Name() string { return "memory" }

// Get returns a copy of the live entry for key; callers may modify it
// without affecting later hits.
func (s *MemoryStore) Get(_ context.Context, key Key) (evidence.Bundle, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().Sub(e.storedAt) >= s.ttl {
		return evidence.Bundle{}, false
	}
	return e.bundle.Clone(), true
}

func (s *MemoryStore) Set(_ context.Context, key Key, bundle evidence.Bundle) {
	s.mu.Lock()
	s.entries[key] = entry{bundle: bundle.Clone(), storedAt: s.now()}
	s.mu.Unlock()
}

// Len counts stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[Key]entry)
	s.mu.Unlock()
}

func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}
