package kv

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memEntry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]memEntry{}, now: time.Now}
}

func (s *MemoryStore) live(key string) (memEntry, bool) {
	e, ok := s.data[key]
	if !ok {
		return memEntry{}, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.data, key)
		return memEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) entry(value []byte, ttl time.Duration) memEntry {
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	return e
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = s.entry(value, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.data[key] = s.entry(value, ttl)
	return true, nil
}

func (s *MemoryStore) GetDel(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.data, key)
	return e.value, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
