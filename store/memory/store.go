// Package memory provides an in-process, tab-scoped session store. It is the
// default substrate for captured click identifiers.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrUnavailable is returned while the store is switched off, the way
// session storage refuses writes in a private browsing window.
var ErrUnavailable = errors.New("memory: session storage unavailable")

// Store is a concurrency-safe map. Reads may run while a write is in
// flight; the last write wins.
type Store struct {
	mu          sync.RWMutex
	data        map[string]string
	unavailable atomic.Bool
}

func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get returns "" and a nil error for absent keys.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	if s.unavailable.Load() {
		return "", ErrUnavailable
	}
	s.mu.RLock()
	v := s.data[key]
	s.mu.RUnlock()
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	if s.unavailable.Load() {
		return ErrUnavailable
	}
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

// SetUnavailable makes every subsequent Get and Set fail with ErrUnavailable
// until called again with false.
func (s *Store) SetUnavailable(v bool) { s.unavailable.Store(v) }

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
