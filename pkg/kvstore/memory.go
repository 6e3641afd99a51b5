package kvstore

import (
	"context"
	"slices"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process Store. Contents are lost when the process exits.
type Memory struct {
	mu sync.RWMutex
	c  *gocache.Cache
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := v.([]byte)
	return slices.Clone(b), nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.c.Set(key, slices.Clone(value), gocache.NoExpiration)
	return nil
}

// SetMany stores all entries while holding the write lock, so readers never
// observe a partial update.
func (m *Memory) SetMany(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range entries {
		m.c.Set(k, slices.Clone(v), gocache.NoExpiration)
	}
	return nil
}
