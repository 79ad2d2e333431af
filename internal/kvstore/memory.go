package kvstore

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used when no store file is
// configured, and in tests. Its guarantees hold only within one process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.Value...), true, nil
}

func (s *MemoryStore) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = newEntry(value, ttl, time.Now())
	return nil
}

func (s *MemoryStore) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.live(key); ok {
		return append([]byte(nil), e.Value...), false, nil
	}
	s.entries[key] = newEntry(value, ttl, time.Now())
	return nil, true, nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	e, ok := s.live(key)
	if ok {
		n, err := strconv.ParseInt(string(e.Value), 10, 64)
		if err != nil {
			return 0, err
		}
		current = n
	} else {
		e = newEntry(nil, ttl, time.Now())
	}

	total := current + 1
	e.Value = []byte(strconv.FormatInt(total, 10))
	s.entries[key] = e
	return total, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// live returns the entry for key if present and not expired, lazily
// deleting expired entries. Caller must hold the lock.
func (s *MemoryStore) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(time.Now()) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, true
}
