package entity

import (
	"fmt"
	"sort"
	"sync"
)

// Builder constructs a fresh, unattached entity. It receives the registry it
// was invoked through so container builders can build their children from it.
type Builder func(r *Registry, args ...any) (Entity, error)

// Registry maps type tags to builders. It is the only way untyped data turns
// into nodes.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry preloaded with the
// built-in tags.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		RegisterBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// Register stores builder under tag guarding against duplicates.
func (r *Registry) Register(tag string, builder Builder) error {
	if builder == nil {
		return fmt.Errorf("entity: builder for %q is nil", tag)
	}
	if tag == "" {
		return fmt.Errorf("entity: type tag must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.builders == nil {
		r.builders = make(map[string]Builder)
	}
	if _, exists := r.builders[tag]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, tag)
	}
	r.builders[tag] = builder
	return nil
}

// MustRegister is Register for schema definitions run at init time.
func (r *Registry) MustRegister(tag string, builder Builder) {
	if err := r.Register(tag, builder); err != nil {
		panic(err)
	}
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[tag]
	return ok
}

// Build constructs a new entity for tag.
func (r *Registry) Build(tag string, args ...any) (Entity, error) {
	if r == nil {
		return nil, fmt.Errorf("entity: registry is nil")
	}
	r.mu.RLock()
	builder := r.builders[tag]
	r.mu.RUnlock()
	if builder == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	built, err := builder(r, args...)
	if err != nil {
		return nil, fmt.Errorf("entity: build %q: %w", tag, err)
	}
	if built == nil {
		return nil, fmt.Errorf("entity: builder for %q returned nil", tag)
	}
	return built, nil
}

// Read builds the tag named by snapshot and merges snapshot into it.
func (r *Registry) Read(snapshot Snapshot, lenient bool, args ...any) (Entity, error) {
	built, err := r.Build(snapshot.Type, args...)
	if err != nil {
		return nil, err
	}
	if err := built.Import(snapshot, lenient); err != nil {
		return nil, err
	}
	return built, nil
}

// Construct builds the tag named by snapshot from its descriptor, taking the
// snapshot's metadata as authoritative.
func (r *Registry) Construct(snapshot Snapshot, args ...any) (Entity, error) {
	built, err := r.Build(snapshot.Type, args...)
	if err != nil {
		return nil, err
	}
	if err := built.BuildFrom(snapshot.Descriptor); err != nil {
		return nil, err
	}
	adoptSnapshotMeta(built, snapshot)
	return built, nil
}

// Clone returns a shallow copy of the registry.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{
		builders: make(map[string]Builder, len(r.builders)),
	}
	for tag, builder := range r.builders {
		clone.builders[tag] = builder
	}
	return clone
}

// Types returns registered tags sorted alphabetically.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.builders))
	for tag := range r.builders {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
