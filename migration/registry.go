package migration

import (
	"fmt"
	"slices"
	"sync"
)

// Factory constructs a Migration from its identifier.
type Factory interface {
	// Create returns the migration registered under name, or an
	// *InvalidMigrationError.
	Create(name string) (Migration, error)
}

// Constructor builds a fresh Migration value.
type Constructor func() (Migration, error)

// Registry is a Factory keyed by canonical migration names.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
	order []string
}

// Compile-time check that Registry implements Factory.
var _ Factory = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor under name. Registering a name twice replaces
// the earlier constructor.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ctors[name]; !ok {
		r.order = append(r.order, name)
	}
	r.ctors[name] = ctor
}

// Add registers m under NameOf(m). Every Create returns the same value, which
// is fine for migrations whose actions are built on each Install/Uninstall call.
func (r *Registry) Add(m Migration) string {
	name := NameOf(m)
	r.Register(name, func() (Migration, error) { return m, nil })
	return name
}

// Create implements Factory.
func (r *Registry) Create(name string) (Migration, error) {
	if name == "" {
		return nil, &InvalidMigrationError{Name: name, Err: fmt.Errorf("empty name")}
	}

	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &InvalidMigrationError{Name: name, Err: fmt.Errorf("not registered")}
	}

	m, err := ctor()
	if err != nil {
		return nil, &InvalidMigrationError{Name: name, Err: err}
	}
	if m == nil {
		return nil, &InvalidMigrationError{Name: name, Err: fmt.Errorf("constructor returned nil")}
	}
	return m, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[name]
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
