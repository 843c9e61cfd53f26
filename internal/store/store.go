package store

import (
	"context"
	"sync"
	"time"
)

// Store is a TTL-expiring key-value store. The store owns expiry: a Get
// after the TTL has elapsed reports the key as absent, callers never check
// expiry themselves.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type memEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store used when no Postgres connection is
// configured. Expired entries are dropped lazily on read.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memEntry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memEntry),
		now:   time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock, a racing Set may have renewed it.
		if cur, ok := m.items[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	m.items[key] = memEntry{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}
