package entity

import (
	"encoding/json"
	"fmt"
)

// FixedArray is a positional array whose length and per-index element types
// are fixed when it is constructed.
type FixedArray struct {
	arrayCore
}

// NewFixedArray constructs a fixed array holding elements. An empty
// elementType allows elements of different tags.
func NewFixedArray(elementType string, elements []Entity, opts ...Option) (*FixedArray, error) {
	cfg := applyContainerOptions(opts)
	a := newFixedArray(elementType, cfg.registry)
	for _, element := range elements {
		if err := a.validateType(element); err != nil {
			return nil, err
		}
		a.elements = append(a.elements, element)
	}
	a.reassignIDs()
	Apply(a, cfg.attrs...)
	a.AddCheck(cfg.checks...)
	return a, nil
}

func newFixedArray(elementType string, registry *Registry) *FixedArray {
	a := &FixedArray{}
	a.init(a, TypeFixedArray)
	a.elementType = elementType
	a.registry = registry
	return a
}

// SetElement replaces the element at index with one of the same tag.
func (a *FixedArray) SetElement(index int, element Entity) error {
	if err := a.validateIndex(index); err != nil {
		return err
	}
	if element != nil && element.Type() != a.elements[index].Type() {
		return fmt.Errorf("%w: slot %d holds %q, got %q", ErrElementType, index, a.elements[index].Type(), element.Type())
	}
	return a.arrayCore.SetElement(index, element)
}

func (a *FixedArray) importDesc(descriptor json.RawMessage, lenient bool) error {
	var desc ArrayDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	if len(desc.Elements) != len(a.elements) {
		return fmt.Errorf("%w: expected %d elements, got %d", ErrShapeMismatch, len(a.elements), len(desc.Elements))
	}
	for i, snapshot := range desc.Elements {
		element := a.elements[i]
		if !lenient && snapshot.Type != element.Type() {
			return withImportSegment(elementLabel(i), fmt.Errorf("%w: expected %q, got %q", ErrShapeMismatch, element.Type(), snapshot.Type))
		}
		if err := element.Import(snapshot, lenient); err != nil {
			return withImportSegment(elementLabel(i), err)
		}
	}
	return nil
}

func (a *FixedArray) cloneImpl() Entity {
	clone := newFixedArray(a.elementType, a.registry)
	clone.elements = a.cloneElements()
	return clone
}

func (a *FixedArray) buildFrom(descriptor json.RawMessage) error {
	if len(a.elements) > 0 {
		return fmt.Errorf("%w: fixed array already holds %d elements", ErrNotEmpty, len(a.elements))
	}
	var desc ArrayDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	if a.elementType == "" {
		a.elementType = desc.ElementType
	}
	built, err := a.constructElements(desc.Elements, nil)
	if err != nil {
		return err
	}
	a.elements = built
	a.reassignIDs()
	return nil
}
