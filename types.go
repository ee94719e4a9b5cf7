package entity

import "encoding/json"

// Entity is a node of a configuration tree. Every variant in this package
// implements it; the unexported methods keep the set of variants closed.
type Entity interface {
	// Type returns the registered tag of the node.
	Type() string
	Meta() Meta
	SetName(name string)
	SetDescription(description string)
	SetHelpText(help string)
	SetHidden(hidden bool)
	SetAdvanced(advanced bool)
	SetDisplayName(display string)

	// ID returns the dot path of the node from the root of its tree.
	ID() string
	// SetID assigns id and re-derives the IDs of every descendant.
	SetID(id string)

	// AssignableFrom reports whether a lenient import accepts a snapshot of tag.
	AssignableFrom(tag string) bool

	// ToConf flattens the subtree into plain values.
	ToConf() any
	// Import merges snapshot into the node. Strict imports fail on a tag
	// mismatch; lenient imports of an unassignable tag keep current state.
	Import(snapshot Snapshot, lenient bool) error
	// Export produces a snapshot that can later be imported.
	Export() (Snapshot, error)
	// Validate checks the subtree and reports the path of the first failure.
	Validate() error
	// Clone returns a deep, independent copy carrying the same metadata.
	Clone() Entity
	// BuildFrom constructs the node's contents from an authored descriptor.
	BuildFrom(descriptor json.RawMessage) error

	base() *node
}

// variant is implemented by each concrete node type and reached through the
// embedded node's this pointer.
type variant interface {
	Entity
	importDesc(descriptor json.RawMessage, lenient bool) error
	exportDesc() (any, error)
	cloneImpl() Entity
	buildFrom(descriptor json.RawMessage) error
	children() []childRef
	reassignIDs()
}

// childRef pairs a child with the key it is attached under and the label
// used in validation paths.
type childRef struct {
	key   string
	label string
	child Entity
}

// Meta carries the descriptive metadata of a node.
type Meta struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	HelpText    string `json:"helpText,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	Advanced    bool   `json:"advanced,omitempty"`
}

// Attr adjusts metadata on a node.
type Attr func(*Meta)

// Named sets the display name of a node.
func Named(name string) Attr {
	return func(m *Meta) {
		m.Name = name
	}
}

// Described sets the description of a node.
func Described(description string) Attr {
	return func(m *Meta) {
		m.Description = description
	}
}

// Help sets the help text of a node.
func Help(help string) Attr {
	return func(m *Meta) {
		m.HelpText = help
	}
}

// Hidden marks a node hidden.
func Hidden() Attr {
	return func(m *Meta) {
		m.Hidden = true
	}
}

// Advanced marks a node as an advanced setting.
func Advanced() Attr {
	return func(m *Meta) {
		m.Advanced = true
	}
}

// DisplayAs overrides the display name of a node.
func DisplayAs(display string) Attr {
	return func(m *Meta) {
		m.DisplayName = display
	}
}

// Apply runs attrs against the metadata of e and returns e.
func Apply[E Entity](e E, attrs ...Attr) E {
	n := e.base()
	for _, attr := range attrs {
		if attr != nil {
			attr(&n.meta)
		}
	}
	return e
}

// Option configures containers that build children through a registry.
type Option func(*containerConfig)

type containerConfig struct {
	registry *Registry
	itemArgs []any
	attrs    []Attr
	checks   []Check
}

// WithRegistry selects the registry used to build children.
func WithRegistry(registry *Registry) Option {
	return func(cfg *containerConfig) {
		cfg.registry = registry
	}
}

// WithItemArgs sets the builder arguments used when a dynamic array creates
// elements.
func WithItemArgs(args ...any) Option {
	return func(cfg *containerConfig) {
		cfg.itemArgs = append([]any(nil), args...)
	}
}

// WithAttrs applies metadata to the container on construction.
func WithAttrs(attrs ...Attr) Option {
	return func(cfg *containerConfig) {
		cfg.attrs = append(cfg.attrs, attrs...)
	}
}

// WithChecks attaches validation checks to the container.
func WithChecks(checks ...Check) Option {
	return func(cfg *containerConfig) {
		cfg.checks = append(cfg.checks, checks...)
	}
}

func applyContainerOptions(opts []Option) containerConfig {
	cfg := containerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = DefaultRegistry()
	}
	return cfg
}
