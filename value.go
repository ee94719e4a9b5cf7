package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind constrains the runtime type a Value may hold.
type Kind int

const (
	// KindAny accepts any scalar.
	KindAny Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "any"
	}
}

// Value is a leaf holding a single scalar, or nothing when unset.
type Value struct {
	node
	kind    Kind
	value   any
	coerce  func(any) any
	project func(any) any
}

// ValueOption configures a Value on construction.
type ValueOption func(*Value)

// ValueTag overrides the registered tag of the value.
func ValueTag(tag string) ValueOption {
	return func(v *Value) {
		v.tag = tag
	}
}

// ValueChecks attaches validation checks to the value.
func ValueChecks(checks ...Check) ValueOption {
	return func(v *Value) {
		v.AddCheck(checks...)
	}
}

// ValueAttrs applies metadata to the value.
func ValueAttrs(attrs ...Attr) ValueOption {
	return func(v *Value) {
		Apply(v, attrs...)
	}
}

// CoerceOnImport normalises values arriving through Import.
func CoerceOnImport(fn func(any) any) ValueOption {
	return func(v *Value) {
		v.coerce = fn
	}
}

// ProjectConf converts the stored value when flattened by ToConf.
func ProjectConf(fn func(any) any) ValueOption {
	return func(v *Value) {
		v.project = fn
	}
}

// NewValue constructs a value constrained to kind holding initial.
func NewValue(initial any, kind Kind, opts ...ValueOption) (*Value, error) {
	v := newValue(TypeValue, kind, opts...)
	if err := v.SetValue(initial); err != nil {
		return nil, err
	}
	return v, nil
}

func newValue(tag string, kind Kind, opts ...ValueOption) *Value {
	v := &Value{kind: kind}
	v.init(v, tag)
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Kind returns the declared kind.
func (v *Value) Kind() Kind { return v.kind }

// Value returns the held value, nil when unset. Numbers are float64.
func (v *Value) Value() any { return v.value }

// IsSet reports whether a value is held.
func (v *Value) IsSet() bool { return v.value != nil }

// Clear unsets the value.
func (v *Value) Clear() { v.value = nil }

// SetValue replaces the held value. nil unsets it.
func (v *Value) SetValue(value any) error {
	normalized, kind, err := normalizeScalar(value)
	if err != nil {
		return err
	}
	if normalized != nil && v.kind != KindAny && kind != v.kind {
		return fmt.Errorf("%w: %q expects %s, got %T", ErrValueKind, v.tag, v.kind, value)
	}
	v.value = normalized
	return nil
}

// Text returns the value as a string.
func (v *Value) Text() (string, bool) {
	s, ok := v.value.(string)
	return s, ok
}

// Float returns the value as a number.
func (v *Value) Float() (float64, bool) {
	f, ok := v.value.(float64)
	return f, ok
}

// Flag returns the value as a bool.
func (v *Value) Flag() (bool, bool) {
	b, ok := v.value.(bool)
	return b, ok
}

func (v *Value) ToConf() any {
	if v.value != nil && v.project != nil {
		return v.project(v.value)
	}
	return v.value
}

func (v *Value) importDesc(descriptor json.RawMessage, lenient bool) error {
	var desc ValueDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	incoming := desc.Descriptor
	if incoming != nil && v.coerce != nil {
		normalized, _, err := normalizeScalar(incoming)
		if err == nil {
			incoming = v.coerce(normalized)
		}
	}
	if err := v.SetValue(incoming); err != nil {
		if lenient {
			return nil
		}
		return err
	}
	return nil
}

func (v *Value) exportDesc() (any, error) {
	return ValueDescriptor{Descriptor: v.value}, nil
}

func (v *Value) cloneImpl() Entity {
	clone := &Value{
		kind:    v.kind,
		value:   v.value,
		coerce:  v.coerce,
		project: v.project,
	}
	clone.init(clone, v.tag)
	return clone
}

func (v *Value) buildFrom(descriptor json.RawMessage) error {
	var desc ValueDescriptor
	if err := decodeDescriptor(descriptor, &desc); err != nil {
		return err
	}
	return v.SetValue(desc.Descriptor)
}

func (v *Value) children() []childRef { return nil }

func (v *Value) reassignIDs() {}

func normalizeScalar(value any) (any, Kind, error) {
	switch typed := value.(type) {
	case nil:
		return nil, KindAny, nil
	case string:
		return typed, KindString, nil
	case bool:
		return typed, KindBool, nil
	case float64:
		return typed, KindNumber, nil
	case float32:
		return float64(typed), KindNumber, nil
	case int:
		return float64(typed), KindNumber, nil
	case int8:
		return float64(typed), KindNumber, nil
	case int16:
		return float64(typed), KindNumber, nil
	case int32:
		return float64(typed), KindNumber, nil
	case int64:
		return float64(typed), KindNumber, nil
	case uint:
		return float64(typed), KindNumber, nil
	case uint8:
		return float64(typed), KindNumber, nil
	case uint16:
		return float64(typed), KindNumber, nil
	case uint32:
		return float64(typed), KindNumber, nil
	case uint64:
		return float64(typed), KindNumber, nil
	case time.Duration:
		return typed.Seconds(), KindNumber, nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return nil, KindAny, fmt.Errorf("%w: %v", ErrValueKind, err)
		}
		return f, KindNumber, nil
	default:
		return nil, KindAny, fmt.Errorf("%w: %T is not a scalar", ErrValueKind, value)
	}
}
