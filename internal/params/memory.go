package params

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type timedValue struct {
	at    time.Time
	value string
}

// MemoryStore holds template and instance parameter values in memory, each
// with its effective-from instant.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string][]timedValue
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{series: make(map[string][]timedValue)}
}

// Set records a value effective from at. Values must be appended in
// chronological order per name.
func (m *MemoryStore) Set(name, value string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[name] = append(m.series[name], timedValue{at: at, value: value})
}

// SetAll records a map of values all effective from at.
func (m *MemoryStore) SetAll(values map[string]string, at time.Time) {
	for name, value := range values {
		m.Set(name, value, at)
	}
}

func (m *MemoryStore) Latest(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	series := m.series[name]
	if len(series) == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	return series[len(series)-1].value, nil
}

func (m *MemoryStore) Before(_ context.Context, name string, t time.Time) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	series := m.series[name]
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].at.Before(t) {
			return series[i].value, nil
		}
	}
	return "", fmt.Errorf("%w: %s (before %s)", ErrMissingParameter, name, t)
}

func (m *MemoryStore) Has(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.series[name]) > 0, nil
}
