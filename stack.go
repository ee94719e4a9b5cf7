package entity

import (
	"errors"
	"fmt"
	"sort"
)

// Scope models a named precedence bucket (persisted, editor, override).
// Higher priority values represent stronger layers.
type Scope struct {
	Name     string
	Label    string
	Priority int
	Metadata map[string]any
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches arbitrary metadata to the scope. The map is
// copied.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to Stack construction.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

// Layer pairs a scope with the snapshot captured for it.
type Layer struct {
	Scope      Scope
	Snapshot   Snapshot
	SnapshotID string
	// Lenient imports the snapshot tolerating tags the tree cannot assign.
	Lenient bool
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID sets the snapshot identifier used for auditing.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// WithLenientImport imports the layer leniently.
func WithLenientImport() LayerOption {
	return func(layer *Layer) {
		layer.Lenient = true
	}
}

// NewLayer constructs a Layer holding a private copy of snapshot.
func NewLayer(scope Scope, snapshot Snapshot, opts ...LayerOption) Layer {
	layer := Layer{
		Scope:    scope.clone(),
		Snapshot: cloneSnapshot(snapshot),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("scope: name must be provided")
	// ErrDuplicateScopeName indicates Stack construction received multiple
	// layers with the same scope name.
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	// ErrPriorityOrder indicates Stack construction detected duplicate
	// priorities.
	ErrPriorityOrder = errors.New("scope: priorities must be strictly ordered")
)

// Stack is an immutable set of layers ordered from strongest to weakest.
type Stack struct {
	layers []Layer
}

// NewStack validates and sorts layers so that the strongest scope comes
// first.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer := cloneLayer(layer)
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns a copy of the layers, strongest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Apply imports every layer into a clone of base, weakest first, validates
// the result and returns it. base is never modified.
func (s *Stack) Apply(base Entity) (Entity, error) {
	if base == nil {
		return nil, fmt.Errorf("scope: base entity is nil")
	}
	draft := base.Clone()
	if s != nil {
		for i := len(s.layers) - 1; i >= 0; i-- {
			layer := s.layers[i]
			if err := draft.Import(layer.Snapshot, layer.Lenient); err != nil {
				return nil, fmt.Errorf("scope %q: %w", layer.Scope.Name, err)
			}
		}
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}

// Recommended priorities for the usual layering. Higher numbers win.
const (
	ScopePriorityPersisted = 100
	ScopePriorityEditor    = 200
	ScopePriorityOverride  = 300
)

// PersistedThenEditor layers a persisted snapshot (imported leniently) and an
// editor snapshot (imported strictly) over a clone of defaults.
func PersistedThenEditor(defaults Entity, persisted, edited Snapshot) (Entity, error) {
	stack, err := NewStack(
		NewLayer(NewScope("persisted", ScopePriorityPersisted, WithScopeLabel("Persisted")), persisted, WithLenientImport()),
		NewLayer(NewScope("editor", ScopePriorityEditor, WithScopeLabel("Editor")), edited),
	)
	if err != nil {
		return nil, err
	}
	return stack.Apply(defaults)
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Scope:      layer.Scope.clone(),
		Snapshot:   cloneSnapshot(layer.Snapshot),
		SnapshotID: layer.SnapshotID,
		Lenient:    layer.Lenient,
	}
}

func cloneSnapshot(snapshot Snapshot) Snapshot {
	out := snapshot
	if snapshot.Descriptor != nil {
		out.Descriptor = append([]byte(nil), snapshot.Descriptor...)
	}
	return out
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
