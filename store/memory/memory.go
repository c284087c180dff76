// Package memory provides an in-memory jar.DocumentStore for tests and dev.
package memory

import (
	"context"
	"sync"

	"github.com/warp/swearjar/jar"
)

// Store implements jar.DocumentStore with a map.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Get returns the document under key, or jar.ErrDocumentNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, jar.ErrDocumentNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

// Put replaces the document under key.
func (s *Store) Put(_ context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(doc))
	copy(cp, doc)
	s.docs[key] = cp
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
