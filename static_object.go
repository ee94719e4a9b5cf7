package entity

import (
	"encoding/json"
	"fmt"
)

// StaticObject is a keyed container whose key set is declared in code.
// Imports reject keys it does not declare and leave absent keys untouched.
type StaticObject struct {
	objectCore
}

// NewStaticObject constructs an empty static object tagged tag. An empty tag
// uses "StaticObject".
func NewStaticObject(tag string, opts ...Option) *StaticObject {
	if tag == "" {
		tag = TypeStaticObject
	}
	cfg := applyContainerOptions(opts)
	o := newStaticObject(tag, cfg.registry)
	Apply(o, cfg.attrs...)
	o.AddCheck(cfg.checks...)
	return o
}

func newStaticObject(tag string, registry *Registry) *StaticObject {
	o := &StaticObject{}
	o.init(o, tag)
	o.initEntries(registry)
	return o
}

func (o *StaticObject) importDesc(descriptor json.RawMessage, lenient bool) error {
	var desc ObjectDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	if !lenient {
		for _, key := range sortedKeys(desc) {
			if !o.HasChild(key) {
				return fmt.Errorf("%w: %q is not declared by %q", ErrUnknownKey, key, o.tag)
			}
		}
	}
	for _, key := range o.keys {
		snapshot, ok := desc[key]
		if !ok {
			continue
		}
		if err := o.entries[key].Import(snapshot, lenient); err != nil {
			return withImportSegment(key, err)
		}
	}
	return nil
}

func (o *StaticObject) cloneImpl() Entity {
	clone := newStaticObject(o.tag, o.registry)
	o.copyEntriesInto(&clone.objectCore)
	return clone
}

func (o *StaticObject) buildFrom(descriptor json.RawMessage) error {
	var desc ObjectDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	return o.constructChildren(desc)
}
