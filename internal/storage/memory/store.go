// Package memory keeps records in-process for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

// Store keeps encoded records keyed by generated IDs.
type Store struct {
	mu    sync.RWMutex
	ids   fact.IDGenerator
	data  map[string][]byte
	order []string
}

// NewStore creates a new in-memory store.
func NewStore(ids fact.IDGenerator) *Store {
	return &Store{
		ids:  ids,
		data: make(map[string][]byte),
	}
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "memory"
}

// Save encodes f and stores it under a fresh key.
func (s *Store) Save(_ context.Context, f fact.Fact) (string, error) {
	key, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	payload, err := fact.Encode(f)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return "", fmt.Errorf("record %s already exists", key)
	}
	s.data[key] = payload
	s.order = append(s.order, key)
	return key, nil
}

// Get decodes the record stored under key.
func (s *Store) Get(key string) (fact.Fact, bool) {
	s.mu.RLock()
	payload, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return fact.Fact{}, false
	}
	f, err := fact.Decode(payload)
	if err != nil {
		return fact.Fact{}, false
	}
	return f, true
}

// Keys returns stored keys in save order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
