package command

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Descriptor is a registered command.
type Descriptor struct {
	Name        string
	Handler     Handler
	Description string
	// Timeout overrides the dispatcher default for this command. Zero means
	// use the default.
	Timeout time.Duration
}

// Option customizes a Descriptor at registration time.
type Option func(*Descriptor)

func WithTimeout(d time.Duration) Option {
	return func(desc *Descriptor) { desc.Timeout = d }
}

func WithDescription(s string) Option {
	return func(desc *Descriptor) { desc.Description = s }
}

// Registry maps command names to handlers. It is populated at composition
// time and frozen before dispatch starts; after Freeze it is read-only and
// lookups take no lock.
type Registry struct {
	mu       sync.RWMutex
	frozen   atomic.Bool
	commands map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Descriptor)}
}

// Register adds a command. Duplicate names are a configuration error.
func (r *Registry) Register(name string, h Handler, opts ...Option) error {
	if name == "" {
		return ErrEmptyName
	}
	if h == nil {
		return fmt.Errorf("register %q: %w", name, ErrNilHandler)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("register %q: %w", name, ErrRegistryFrozen)
	}
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateCommand)
	}

	desc := Descriptor{Name: name, Handler: h}
	for _, opt := range opts {
		opt(&desc)
	}
	r.commands[name] = desc
	return nil
}

// RegisterFunc is Register for plain functions.
func (r *Registry) RegisterFunc(name string, fn HandlerFunc, opts ...Option) error {
	if fn == nil {
		return r.Register(name, nil, opts...)
	}
	return r.Register(name, fn, opts...)
}

// MustRegister panics on error. Intended for composition roots where a
// duplicate is a programming mistake.
func (r *Registry) MustRegister(name string, h Handler, opts ...Option) {
	if err := r.Register(name, h, opts...); err != nil {
		panic(err)
	}
}

// Freeze makes the registry immutable. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool { return r.frozen.Load() }

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	desc, ok := r.commands[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrCommandNotFound, name)
	}
	return desc, nil
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	return slices.Sorted(maps.Keys(r.commands))
}

func (r *Registry) Len() int {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	return len(r.commands)
}
