package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	sent      bool
	expiresAt time.Time
}

// MemoryStore is a single-process IdempotencyStore for the in-memory broker.
type MemoryStore struct {
	now func() time.Time

	mu   sync.Mutex
	keys map[string]entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, keys: map[string]entry{}}
}

func (s *MemoryStore) get(key string) (entry, bool) {
	e, ok := s.keys[key]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.keys, key)
		return entry{}, false
	}
	return e, ok
}

func (s *MemoryStore) Seen(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.get(key)
	return ok && e.sent, nil
}

func (s *MemoryStore) Claim(ctx context.Context, key string, lease time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.get(key); ok {
		return false, nil
	}
	s.keys[key] = entry{expiresAt: s.now().Add(lease)}
	return true, nil
}

func (s *MemoryStore) MarkSent(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = entry{sent: true, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.get(key); ok && !e.sent {
		delete(s.keys, key)
	}
	return nil
}
