package entity

import (
	"fmt"
	"strconv"
)

// arrayCore is the state shared by fixed and dynamic arrays.
type arrayCore struct {
	node
	elementType string
	elements    []Entity
	registry    *Registry
}

// ElementType returns the tag every element carries. Empty means mixed.
func (a *arrayCore) ElementType() string { return a.elementType }

// Len returns the number of elements.
func (a *arrayCore) Len() int { return len(a.elements) }

// Elements returns the elements in order.
func (a *arrayCore) Elements() []Entity {
	return append([]Entity(nil), a.elements...)
}

// Element returns the element at index.
func (a *arrayCore) Element(index int) (Entity, error) {
	if err := a.validateIndex(index); err != nil {
		return nil, err
	}
	return a.elements[index], nil
}

// SetElement replaces the element at index.
func (a *arrayCore) SetElement(index int, element Entity) error {
	if err := a.validateIndex(index); err != nil {
		return err
	}
	if err := a.validateType(element); err != nil {
		return err
	}
	a.elements[index] = element
	a.attach(index, element)
	return nil
}

// Each calls fn for every element in order.
func (a *arrayCore) Each(fn func(index int, element Entity)) {
	for i, element := range a.elements {
		fn(i, element)
	}
}

// Map returns fn applied to every element in order.
func (a *arrayCore) Map(fn func(index int, element Entity) any) []any {
	out := make([]any, len(a.elements))
	for i, element := range a.elements {
		out[i] = fn(i, element)
	}
	return out
}

func (a *arrayCore) ToConf() any {
	return a.Map(func(_ int, element Entity) any {
		return element.ToConf()
	})
}

func (a *arrayCore) validateIndex(index int) error {
	if index < 0 || index >= len(a.elements) {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, len(a.elements))
	}
	return nil
}

func (a *arrayCore) validateType(element Entity) error {
	if element == nil {
		return fmt.Errorf("%w: element is nil", ErrElementType)
	}
	if a.elementType != "" && element.Type() != a.elementType {
		return fmt.Errorf("%w: expected %q, got %q", ErrElementType, a.elementType, element.Type())
	}
	return nil
}

func (a *arrayCore) attach(index int, element Entity) {
	element.SetDisplayName("#" + strconv.Itoa(index+1))
	element.SetID(ExtendID(a.id, strconv.Itoa(index)))
}

func (a *arrayCore) children() []childRef {
	refs := make([]childRef, len(a.elements))
	for i, element := range a.elements {
		refs[i] = childRef{
			key:   strconv.Itoa(i),
			label: elementLabel(i),
			child: element,
		}
	}
	return refs
}

func (a *arrayCore) reassignIDs() {
	for i, element := range a.elements {
		a.attach(i, element)
	}
}

func (a *arrayCore) exportDesc() (any, error) {
	desc := ArrayDescriptor{
		ElementType: a.elementType,
		Elements:    make([]Snapshot, len(a.elements)),
	}
	for i, element := range a.elements {
		snapshot, err := element.Export()
		if err != nil {
			return nil, fmt.Errorf("entity: export %s: %w", elementLabel(i), err)
		}
		desc.Elements[i] = snapshot
	}
	return desc, nil
}

func (a *arrayCore) cloneElements() []Entity {
	out := make([]Entity, len(a.elements))
	for i, element := range a.elements {
		out[i] = element.Clone()
	}
	return out
}

// constructElements builds fresh elements from authored snapshots.
func (a *arrayCore) constructElements(snapshots []Snapshot, args []any) ([]Entity, error) {
	built := make([]Entity, 0, len(snapshots))
	for i, snapshot := range snapshots {
		element, err := a.registry.Construct(snapshot, args...)
		if err != nil {
			return nil, withImportSegment(elementLabel(i), err)
		}
		if err := a.validateType(element); err != nil {
			return nil, withImportSegment(elementLabel(i), err)
		}
		built = append(built, element)
	}
	return built, nil
}
