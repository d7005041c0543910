package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/appmigrate/appmigrate/store"
)

// Store is an in-memory installed-set for tests and embedded use.
// It provides thread-safe access using a sync.RWMutex.
type Store struct {
	mu    sync.RWMutex
	names []string
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New creates a store pre-populated with names, in order. Duplicates are dropped.
func New(names ...string) *Store {
	s := &Store{}
	for _, name := range names {
		if !slices.Contains(s.names, name) {
			s.names = append(s.names, name)
		}
	}
	return s
}

// IsInstalled reports whether name is installed.
func (s *Store) IsInstalled(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.names, name), nil
}

// Installed returns all installed names in insertion order.
func (s *Store) Installed(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.names))
	copy(names, s.names)
	return names, nil
}

// Add appends name unless it is already installed.
func (s *Store) Add(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.names, name) {
		s.names = append(s.names, name)
	}
	return nil
}

// Remove deletes name if present.
func (s *Store) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
	return nil
}
