package dispatch

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyRegistered is returned when a method name already has an entry.
// Registration never silently overwrites; replacing a handler requires an
// explicit Unregister followed by Register.
var ErrAlreadyRegistered = errors.New("jrpc: method already registered")

// Registry is a concurrency-safe mapping from method name to handler.
// Lookups proceed concurrently; registrations take the write lock. Entries
// are immutable once registered.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Handler
}

// NewRegistry creates an empty method registry.
func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[string]Handler),
	}
}

// Register adds a handler under the given method name. Names are
// case-sensitive and must be unique.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return errors.New("jrpc: method name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("jrpc: nil handler for method %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.methods[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.methods[name] = h
	return nil
}

// MustRegister is like Register but panics on failure, enabling fluent
// chaining of registrations at startup:
//
//	reg.MustRegister("math/add", add).MustRegister("math/subtract", sub)
func (r *Registry) MustRegister(name string, h Handler) *Registry {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the handler registered under name. It is safe to call
// concurrently with other lookups and with registrations of different names.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.methods[name]
	return h, ok
}

// Unregister removes the entry for name, reporting whether one existed.
// In-flight dispatches bound before removal are unaffected.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[name]; !ok {
		return false
	}
	delete(r.methods, name)
	return true
}

// Methods returns the names of all registered methods.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}

// Method starts building a registration for the given name. Errors are
// deferred until Err so registrations can be chained.
func (r *Registry) Method(name string) *MethodBuilder {
	return &MethodBuilder{name: name, registry: r}
}

// MethodBuilder provides a fluent API for registering methods.
type MethodBuilder struct {
	name     string
	registry *Registry
	err      error
}

// Handler registers h under the builder's method name.
func (b *MethodBuilder) Handler(h Handler) *MethodBuilder {
	if b.err != nil {
		return b
	}
	b.err = b.registry.Register(b.name, h)
	return b
}

// HandlerFunc registers a stateless function under the builder's method name.
func (b *MethodBuilder) HandlerFunc(fn HandlerFunc) *MethodBuilder {
	return b.Handler(fn)
}

// Method starts a registration for another name, carrying any earlier error.
func (b *MethodBuilder) Method(name string) *MethodBuilder {
	next := b.registry.Method(name)
	next.err = b.err
	return next
}

// Err returns the first error encountered while building, if any.
func (b *MethodBuilder) Err() error {
	return b.err
}
