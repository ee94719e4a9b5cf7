package entity

import (
	"encoding/json"
	"fmt"
)

// DynamicObject is a keyed container whose key set follows its snapshots:
// imports build new keys, drop stale keys and merge shared keys.
type DynamicObject struct {
	objectCore
}

// NewDynamicObject constructs an empty dynamic object tagged tag. An empty
// tag uses "DynamicObject".
func NewDynamicObject(tag string, opts ...Option) *DynamicObject {
	if tag == "" {
		tag = TypeDynamicObject
	}
	cfg := applyContainerOptions(opts)
	o := newDynamicObject(tag, cfg.registry)
	Apply(o, cfg.attrs...)
	o.AddCheck(cfg.checks...)
	return o
}

func newDynamicObject(tag string, registry *Registry) *DynamicObject {
	o := &DynamicObject{}
	o.init(o, tag)
	o.initEntries(registry)
	return o
}

// SetChild stores child under key, replacing any previous child.
func (o *DynamicObject) SetChild(key string, child Entity) error {
	if child == nil {
		return fmt.Errorf("entity: child %q is nil", key)
	}
	o.setChild(key, child)
	return nil
}

// RemoveChild removes the child under key.
func (o *DynamicObject) RemoveChild(key string) error {
	if !o.removeChild(key) {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return nil
}

func (o *DynamicObject) importDesc(descriptor json.RawMessage, lenient bool) error {
	var desc ObjectDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	fresh := make(map[string]Entity)
	for _, key := range sortedKeys(desc) {
		if o.HasChild(key) {
			continue
		}
		child, err := o.registry.Read(desc[key], lenient)
		if err != nil {
			return withImportSegment(key, err)
		}
		fresh[key] = child
	}
	var shared, stale []string
	for _, key := range o.Keys() {
		if _, ok := desc[key]; ok {
			shared = append(shared, key)
		} else {
			stale = append(stale, key)
		}
	}
	// Shared children keep their identity, so the merge is tried on clones
	// first and only repeated in place once every key imports.
	for _, key := range shared {
		if err := o.entries[key].Clone().Import(desc[key], lenient); err != nil {
			return withImportSegment(key, err)
		}
	}
	for _, key := range shared {
		if err := o.entries[key].Import(desc[key], lenient); err != nil {
			return withImportSegment(key, err)
		}
	}
	for _, key := range stale {
		o.removeChild(key)
	}
	for _, key := range sortedKeys(fresh) {
		o.setChild(key, fresh[key])
	}
	return nil
}

func (o *DynamicObject) cloneImpl() Entity {
	clone := newDynamicObject(o.tag, o.registry)
	o.copyEntriesInto(&clone.objectCore)
	return clone
}

func (o *DynamicObject) buildFrom(descriptor json.RawMessage) error {
	var desc ObjectDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	for _, key := range o.Keys() {
		o.removeChild(key)
	}
	return o.constructChildren(desc)
}
