package store

import (
	"context"
	"sync"
	"time"
)

// Memory implements Store in memory; thread-safe. TTLs are recorded but not
// enforced (the production store owns expiry) so tests can assert what was
// armed.
type Memory struct {
	mu    sync.RWMutex
	vals  map[string]string
	lists map[string][]string
	ttls  map[string]time.Duration
}

func NewMemory() *Memory {
	return &Memory{
		vals:  make(map[string]string),
		lists: make(map[string][]string),
		ttls:  make(map[string]time.Duration),
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.vals[key]
	return val, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, val string) error {
	m.mu.Lock()
	m.vals[key] = val
	m.mu.Unlock()
	return nil
}

func (m *Memory) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exists(key) {
		m.ttls[key] = ttl
	}
	return nil
}

func (m *Memory) ExpireNX(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, armed := m.ttls[key]; !armed && m.exists(key) {
		m.ttls[key] = ttl
	}
	return nil
}

func (m *Memory) ListPush(ctx context.Context, key string, vals ...string) error {
	m.mu.Lock()
	m.lists[key] = append(m.lists[key], vals...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.lists[key]
	n := int64(len(list))
	if n == 0 {
		return nil, nil
	}

	// Redis LRANGE clamping: negative indexes count from the tail, bounds
	// beyond the list collapse to its edges.
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop > n-1 {
		stop = n - 1
	}
	if start > stop || start > n-1 {
		return nil, nil
	}

	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.vals, key)
		delete(m.lists, key)
		delete(m.ttls, key)
	}
	m.mu.Unlock()
	return nil
}

// TTL reports the duration last armed for key, for tests.
func (m *Memory) TTL(key string) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ttl, ok := m.ttls[key]
	return ttl, ok
}

// caller must hold mu
func (m *Memory) exists(key string) bool {
	if _, ok := m.vals[key]; ok {
		return true
	}
	_, ok := m.lists[key]
	return ok
}
