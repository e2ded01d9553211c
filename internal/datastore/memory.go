package datastore

import (
	"context"
	"sync"
)

// MemoryFactory keeps namespaces in process memory. Safe for concurrent use.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewMemoryFactory returns an empty MemoryFactory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{stores: make(map[string]*MemoryStore)}
}

// Create returns the store for name, seeding it on first use. It satisfies Factory.
func (f *MemoryFactory) Create(_ context.Context, name string, seed any) (Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stores[name]; ok {
		return s, nil
	}
	doc, err := seedDocument(seed)
	if err != nil {
		return nil, err
	}
	s := &MemoryStore{doc: doc}
	f.stores[name] = s
	return s, nil
}

// MemoryStore is one in-memory namespace document.
type MemoryStore struct {
	mu  sync.RWMutex
	doc document
}

// Get decodes the value at key into out.
func (s *MemoryStore) Get(_ context.Context, key []string, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.lookup(key, out)
}

// Set stores value at key.
func (s *MemoryStore) Set(_ context.Context, key []string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.set(key, v)
}

// Delete removes the value at key.
func (s *MemoryStore) Delete(_ context.Context, key []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.remove(key)
	return nil
}
