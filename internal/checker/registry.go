package checker

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a fresh Checker.
type Factory func() Checker

// Registry maps checker names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds factory under name. Empty names, nil factories and duplicates are rejected.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("registering checker: name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("registering checker %q: factory cannot be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("registering checker %q: duplicate name", name)
	}
	r.factories[name] = factory
	return nil
}

// Lookup instantiates the checker registered under name.
func (r *Registry) Lookup(name string) (Checker, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownChecker, name)
	}
	return factory(), nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds factory to the default registry. It panics on error and is
// meant to be called from init functions.
func Register(name string, factory Factory) {
	if err := defaultRegistry.Register(name, factory); err != nil {
		panic(err)
	}
}

// Lookup resolves name in the default registry.
func Lookup(name string) (Checker, error) {
	return defaultRegistry.Lookup(name)
}

// Names lists the default registry.
func Names() []string {
	return defaultRegistry.Names()
}
