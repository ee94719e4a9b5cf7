package entity

import (
	"encoding/json"
	"fmt"
)

// DynamicArray is a list of elements sharing one tag. Imports replace the
// whole list.
type DynamicArray struct {
	arrayCore
	itemArgs []any
}

// NewDynamicArray constructs an empty dynamic array of elementType.
func NewDynamicArray(elementType string, opts ...Option) *DynamicArray {
	cfg := applyContainerOptions(opts)
	a := newDynamicArray(elementType, cfg.registry, cfg.itemArgs)
	Apply(a, cfg.attrs...)
	a.AddCheck(cfg.checks...)
	return a
}

func newDynamicArray(elementType string, registry *Registry, itemArgs []any) *DynamicArray {
	a := &DynamicArray{itemArgs: append([]any(nil), itemArgs...)}
	a.init(a, TypeDynamicArray)
	a.AllowImportFrom(TypeFixedArray)
	a.elementType = elementType
	a.registry = registry
	return a
}

// AddElement appends element.
func (a *DynamicArray) AddElement(element Entity) error {
	if err := a.validateType(element); err != nil {
		return err
	}
	a.elements = append(a.elements, element)
	a.attach(len(a.elements)-1, element)
	return nil
}

// Add builds an element of the array's element type with args and appends it.
func (a *DynamicArray) Add(args ...any) (Entity, error) {
	if a.elementType == "" {
		return nil, ErrMissingElementType
	}
	element, err := a.registry.Build(a.elementType, args...)
	if err != nil {
		return nil, err
	}
	if err := a.AddElement(element); err != nil {
		return nil, err
	}
	return element, nil
}

// CreateElement appends an element built with the array's item arguments.
func (a *DynamicArray) CreateElement() (Entity, error) {
	return a.Add(a.itemArgs...)
}

// RemoveElementAt removes the element at index and re-derives the IDs of the
// elements after it.
func (a *DynamicArray) RemoveElementAt(index int) error {
	if err := a.validateIndex(index); err != nil {
		return err
	}
	a.elements = append(a.elements[:index], a.elements[index+1:]...)
	for i := index; i < len(a.elements); i++ {
		a.attach(i, a.elements[i])
	}
	return nil
}

// Clear removes every element.
func (a *DynamicArray) Clear() {
	a.elements = nil
}

func (a *DynamicArray) importDesc(descriptor json.RawMessage, lenient bool) error {
	var desc ArrayDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	elementType := a.elementType
	if elementType == "" {
		elementType = desc.ElementType
	}
	if elementType == "" {
		return ErrMissingElementType
	}
	if !lenient && desc.ElementType != "" && desc.ElementType != elementType {
		return fmt.Errorf("%w: expected %q, got %q", ErrElementType, elementType, desc.ElementType)
	}
	rebuilt := make([]Entity, 0, len(desc.Elements))
	for i, snapshot := range desc.Elements {
		if !lenient && snapshot.Type != elementType {
			return withImportSegment(elementLabel(i), fmt.Errorf("%w: expected %q, got %q", ErrElementType, elementType, snapshot.Type))
		}
		element, err := a.registry.Build(elementType, a.itemArgs...)
		if err != nil {
			return withImportSegment(elementLabel(i), err)
		}
		if err := element.Import(snapshot, lenient); err != nil {
			return withImportSegment(elementLabel(i), err)
		}
		rebuilt = append(rebuilt, element)
	}
	a.elementType = elementType
	a.elements = rebuilt
	a.reassignIDs()
	return nil
}

func (a *DynamicArray) cloneImpl() Entity {
	clone := newDynamicArray(a.elementType, a.registry, a.itemArgs)
	clone.elements = a.cloneElements()
	return clone
}

func (a *DynamicArray) buildFrom(descriptor json.RawMessage) error {
	var desc ArrayDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	if a.elementType == "" {
		a.elementType = desc.ElementType
	}
	built, err := a.constructElements(desc.Elements, a.itemArgs)
	if err != nil {
		return err
	}
	a.elements = built
	a.reassignIDs()
	return nil
}
