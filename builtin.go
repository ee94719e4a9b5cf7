package entity

import "fmt"

// Built-in tags registered by RegisterBuiltins.
const (
	TypeValue             = "Value"
	TypeString            = "String"
	TypeHiddenString      = "HiddenString"
	TypeBoolean           = "Boolean"
	TypeNumber            = "Number"
	TypeInteger           = "Integer"
	TypeNaturalNumber     = "NaturalNumber"
	TypeNonNegativeNumber = "NonNegativeNumber"
	TypePositiveNumber    = "PositiveNumber"
	TypePercentageNumber  = "PercentageNumber"
	TypeDuration          = "Duration"
	TypeFixedArray        = "FixedArray"
	TypeDynamicArray      = "DynamicArray"
	TypeStaticObject      = "StaticObject"
	TypeDynamicObject     = "DynamicObject"
)

// RegisterBuiltins registers the built-in tags on r. Value builders take an
// optional initial value. FixedArray takes an element type followed by its
// elements; DynamicArray takes an element type followed by item arguments.
func RegisterBuiltins(r *Registry) {
	valueBuilder := func(construct func() *Value) Builder {
		return func(_ *Registry, args ...any) (Entity, error) {
			v := construct()
			if len(args) > 0 {
				if err := v.SetValue(args[0]); err != nil {
					return nil, err
				}
			}
			return v, nil
		}
	}
	r.MustRegister(TypeValue, valueBuilder(func() *Value { return newValue(TypeValue, KindAny) }))
	r.MustRegister(TypeString, valueBuilder(func() *Value { return NewString() }))
	r.MustRegister(TypeHiddenString, valueBuilder(func() *Value { return NewHiddenString() }))
	r.MustRegister(TypeBoolean, valueBuilder(func() *Value { return NewBoolean() }))
	r.MustRegister(TypeNumber, valueBuilder(func() *Value { return NewNumber() }))
	r.MustRegister(TypeInteger, valueBuilder(func() *Value { return NewInteger() }))
	r.MustRegister(TypeNaturalNumber, valueBuilder(func() *Value { return NewNaturalNumber() }))
	r.MustRegister(TypeNonNegativeNumber, valueBuilder(func() *Value { return NewNonNegativeNumber() }))
	r.MustRegister(TypePositiveNumber, valueBuilder(func() *Value { return NewPositiveNumber() }))
	r.MustRegister(TypePercentageNumber, valueBuilder(func() *Value { return NewPercentage() }))
	r.MustRegister(TypeDuration, valueBuilder(func() *Value { return NewDuration() }))

	r.MustRegister(TypeFixedArray, func(reg *Registry, args ...any) (Entity, error) {
		elementType, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		var elements []Entity
		for i := 1; i < len(args); i++ {
			element, ok := args[i].(Entity)
			if !ok {
				return nil, fmt.Errorf("entity: fixed array argument %d is %T, not an entity", i, args[i])
			}
			elements = append(elements, element)
		}
		return NewFixedArray(elementType, elements, WithRegistry(reg))
	})
	r.MustRegister(TypeDynamicArray, func(reg *Registry, args ...any) (Entity, error) {
		elementType, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		var itemArgs []any
		if len(args) > 1 {
			itemArgs = args[1:]
		}
		return NewDynamicArray(elementType, WithRegistry(reg), WithItemArgs(itemArgs...)), nil
	})
	r.MustRegister(TypeStaticObject, func(reg *Registry, _ ...any) (Entity, error) {
		return NewStaticObject(TypeStaticObject, WithRegistry(reg)), nil
	})
	r.MustRegister(TypeDynamicObject, func(reg *Registry, _ ...any) (Entity, error) {
		return NewDynamicObject(TypeDynamicObject, WithRegistry(reg)), nil
	})
}

func stringArg(args []any, index int) (string, error) {
	if index >= len(args) || args[index] == nil {
		return "", nil
	}
	s, ok := args[index].(string)
	if !ok {
		return "", fmt.Errorf("entity: argument %d is %T, not a string", index, args[index])
	}
	return s, nil
}
