package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

type idemEntry struct {
	resp    *ports.StoredResponse
	expires time.Time
}

// IdempotencyStore respuestas idempotentes en memoria (un solo proceso, sin Redis).
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idemEntry
	locks   map[string]time.Time
	now     func() time.Time
}

func NewIdempotencyStore(now func() time.Time) *IdempotencyStore {
	if now == nil {
		now = time.Now
	}
	return &IdempotencyStore{entries: map[string]idemEntry{}, locks: map[string]time.Time{}, now: now}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.StoredResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	cp := *e.resp
	return &cp, true, nil
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.locks[key]; ok && s.now().Before(until) {
		return false, nil
	}
	s.locks[key] = s.now().Add(ttl)
	return true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := resp
	cp.Body = append([]byte(nil), resp.Body...)
	s.entries[key] = idemEntry{resp: &cp, expires: s.now().Add(ttl)}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}
