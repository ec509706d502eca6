package legacy

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/gonesbridge/internal/ports"
)

// MapSource is an in-memory source that remembers insertion order.
type MapSource struct {
	mu     sync.RWMutex
	keys   []string
	values map[string][]byte
}

// NewMapSource creates an empty MapSource.
func NewMapSource() *MapSource {
	return &MapSource{values: make(map[string][]byte)}
}

// Set stores value under key. A new key is appended to the iteration order.
func (m *MapSource) Set(key string, value []byte) *MapSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append([]byte(nil), value...)
	return m
}

// Keys returns keys in insertion order.
func (m *MapSource) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.keys...), nil
}

// Value returns a copy of the value stored under key.
func (m *MapSource) Value(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

var _ ports.LegacySource = (*MapSource)(nil)
