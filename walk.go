package entity

import "errors"

// SkipChildren can be returned by a WalkFunc to skip the node's subtree.
var SkipChildren = errors.New("entity: skip children")

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(e Entity) error

// Walk visits root and its descendants depth-first in declaration order.
// Choices visit every option, selected or not.
func Walk(root Entity, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	if err := fn(root); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, ref := range root.base().this.children() {
		if err := Walk(ref.child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Children returns the direct children of e in declaration order.
func Children(e Entity) []Entity {
	refs := e.base().this.children()
	out := make([]Entity, len(refs))
	for i, ref := range refs {
		out[i] = ref.child
	}
	return out
}

// Find returns the node of root's tree carrying id.
func Find(root Entity, id string) (Entity, bool) {
	var found Entity
	_ = Walk(root, func(e Entity) error {
		if found != nil {
			return SkipChildren
		}
		if e.ID() == id {
			found = e
			return SkipChildren
		}
		return nil
	})
	return found, found != nil
}

// Lookup descends from root following the unescaped key segments of path.
// Array elements are addressed by index and choice options by name.
func Lookup(root Entity, path ...string) (Entity, bool) {
	current := root
	for _, segment := range path {
		next, ok := childByKey(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, current != nil
}

func childByKey(e Entity, key string) (Entity, bool) {
	if e == nil {
		return nil, false
	}
	for _, ref := range e.base().this.children() {
		if ref.key == key {
			return ref.child, true
		}
	}
	return nil, false
}

// Variant names the structural family of a node.
type Variant string

const (
	VariantValue         Variant = "value"
	VariantFixedArray    Variant = "fixed-array"
	VariantDynamicArray  Variant = "dynamic-array"
	VariantStaticObject  Variant = "static-object"
	VariantDynamicObject Variant = "dynamic-object"
	VariantChoice        Variant = "choice"
	VariantChoiceValue   Variant = "choice-value"
)

// VariantOf returns the structural family of e.
func VariantOf(e Entity) Variant {
	switch e.(type) {
	case *Value:
		return VariantValue
	case *FixedArray:
		return VariantFixedArray
	case *DynamicArray:
		return VariantDynamicArray
	case *ChoiceValue:
		return VariantChoiceValue
	case *StaticObject:
		return VariantStaticObject
	case *DynamicObject:
		return VariantDynamicObject
	case *Choice:
		return VariantChoice
	default:
		return ""
	}
}
