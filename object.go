package entity

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"
)

// objectCore is the state shared by keyed containers.
type objectCore struct {
	node
	keys     []string
	entries  map[string]Entity
	registry *Registry
}

func (o *objectCore) initEntries(registry *Registry) {
	o.entries = make(map[string]Entity)
	o.registry = registry
}

// Child returns the child stored under key.
func (o *objectCore) Child(key string) (Entity, error) {
	child, ok := o.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return child, nil
}

// HasChild reports whether key is present.
func (o *objectCore) HasChild(key string) bool {
	_, ok := o.entries[key]
	return ok
}

// AddChild attaches child under key.
func (o *objectCore) AddChild(key string, child Entity, attrs ...Attr) error {
	if child == nil {
		return fmt.Errorf("entity: child %q is nil", key)
	}
	if _, exists := o.entries[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	Apply(child, attrs...)
	o.keys = append(o.keys, key)
	o.entries[key] = child
	child.SetID(ExtendID(o.id, key))
	return nil
}

// MustAdd is AddChild for schema code where a duplicate key is a programming
// error.
func (o *objectCore) MustAdd(key string, child Entity, attrs ...Attr) {
	if err := o.AddChild(key, child, attrs...); err != nil {
		panic(err)
	}
}

// Keys returns child keys in the order they were added.
func (o *objectCore) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of children.
func (o *objectCore) Len() int { return len(o.keys) }

// Each calls fn for every child in key order.
func (o *objectCore) Each(fn func(key string, child Entity)) {
	for _, key := range o.keys {
		fn(key, o.entries[key])
	}
}

func (o *objectCore) ToConf() any {
	conf := make(map[string]any, len(o.keys))
	for _, key := range o.keys {
		conf[key] = o.entries[key].ToConf()
	}
	return conf
}

func (o *objectCore) exportDesc() (any, error) {
	desc := make(ObjectDescriptor, len(o.keys))
	for _, key := range o.keys {
		snapshot, err := o.entries[key].Export()
		if err != nil {
			return nil, fmt.Errorf("entity: export %q: %w", key, err)
		}
		desc[key] = snapshot
	}
	return desc, nil
}

func (o *objectCore) children() []childRef {
	refs := make([]childRef, len(o.keys))
	for i, key := range o.keys {
		child := o.entries[key]
		refs[i] = childRef{
			key:   key,
			label: childLabel(key, child),
			child: child,
		}
	}
	return refs
}

func (o *objectCore) reassignIDs() {
	for _, key := range o.keys {
		o.entries[key].SetID(ExtendID(o.id, key))
	}
}

func (o *objectCore) setChild(key string, child Entity) {
	if _, exists := o.entries[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.entries[key] = child
	child.SetID(ExtendID(o.id, key))
}

func (o *objectCore) removeChild(key string) bool {
	if _, exists := o.entries[key]; !exists {
		return false
	}
	delete(o.entries, key)
	for i, candidate := range o.keys {
		if candidate == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *objectCore) copyEntriesInto(target *objectCore) {
	for _, key := range o.keys {
		target.keys = append(target.keys, key)
		target.entries[key] = o.entries[key].Clone()
	}
}

// constructChildren builds every child of desc from its authored snapshot.
// Unnamed children are named after their key.
func (o *objectCore) constructChildren(desc ObjectDescriptor) error {
	for _, key := range sortedKeys(desc) {
		child, err := o.registry.Construct(desc[key])
		if err != nil {
			return withImportSegment(key, err)
		}
		if child.Meta().Name == "" {
			child.SetName(upperFirst(key))
		}
		o.setChild(key, child)
	}
	return nil
}

// ChildAs returns the child under key asserted to E.
func ChildAs[E Entity](parent interface {
	Child(key string) (Entity, error)
}, key string) (E, error) {
	var zero E
	child, err := parent.Child(key)
	if err != nil {
		return zero, err
	}
	typed, ok := child.(E)
	if !ok {
		return zero, fmt.Errorf("%w: child %q is %T", ErrTypeMismatch, key, child)
	}
	return typed, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
