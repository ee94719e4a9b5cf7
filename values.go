package entity

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidValue is returned by the built-in value checks.
var ErrInvalidValue = errors.New("entity: invalid value")

// NewString constructs a string value.
func NewString(initial ...string) *Value {
	v := newValue(TypeString, KindString)
	if len(initial) > 0 {
		v.value = initial[0]
	}
	return v
}

// NewHiddenString constructs a string value that editors should mask. It
// accepts snapshots of plain strings.
func NewHiddenString(initial ...string) *Value {
	v := newValue(TypeHiddenString, KindString)
	v.AllowImportFrom(TypeString)
	if len(initial) > 0 {
		v.value = initial[0]
	}
	return v
}

// NewBoolean constructs a boolean value.
func NewBoolean(initial ...bool) *Value {
	v := newValue(TypeBoolean, KindBool)
	if len(initial) > 0 {
		v.value = initial[0]
	}
	return v
}

// NewNumber constructs an unconstrained number.
func NewNumber(initial ...float64) *Value {
	v := newValue(TypeNumber, KindNumber)
	if len(initial) > 0 {
		v.value = initial[0]
	}
	return v
}

// NewInteger constructs a whole number. Imports are rounded.
func NewInteger(initial ...int) *Value {
	v := newValue(TypeInteger, KindNumber,
		CoerceOnImport(roundNumber),
		ProjectConf(toInt),
		ValueChecks(wholeNumber),
	)
	if len(initial) > 0 {
		v.value = float64(initial[0])
	}
	return v
}

// NewNaturalNumber constructs a whole number >= 0. Imports are rounded and
// negative imports clamp to 0.
func NewNaturalNumber(initial ...int) *Value {
	v := newValue(TypeNaturalNumber, KindNumber,
		CoerceOnImport(func(value any) any { return clampMin(roundNumber(value), 0) }),
		ProjectConf(toInt),
		ValueChecks(wholeNumber, minNumber(0)),
	)
	if len(initial) > 0 {
		v.value = float64(initial[0])
	}
	return v
}

// NewNonNegativeNumber constructs a number >= 0.
func NewNonNegativeNumber(initial ...float64) *Value {
	v := newValue(TypeNonNegativeNumber, KindNumber,
		CoerceOnImport(func(value any) any { return clampMin(value, 0) }),
		ValueChecks(minNumber(0)),
	)
	if len(initial) > 0 {
		v.value = initial[0]
	}
	return v
}

// NewPositiveNumber constructs a number > 0. Non-positive imports become 1.
func NewPositiveNumber(initial ...float64) *Value {
	v := newValue(TypePositiveNumber, KindNumber,
		CoerceOnImport(func(value any) any {
			if f, ok := value.(float64); ok && f <= 0 {
				return float64(1)
			}
			return value
		}),
		ValueChecks(positiveNumber),
	)
	if len(initial) > 0 {
		v.value = initial[0]
	}
	return v
}

// NewPercentage constructs a number within [0, 100].
func NewPercentage(initial ...float64) *Value {
	v := newValue(TypePercentageNumber, KindNumber,
		CoerceOnImport(func(value any) any { return clampMin(value, 0) }),
		ValueChecks(minNumber(0), maxNumber(100)),
	)
	if len(initial) > 0 {
		v.value = initial[0]
	}
	return v
}

// NewDuration constructs a non-negative duration held in seconds. ToConf
// yields a time.Duration.
func NewDuration(initial ...time.Duration) *Value {
	v := newValue(TypeDuration, KindNumber,
		CoerceOnImport(func(value any) any { return clampMin(value, 0) }),
		ProjectConf(func(value any) any {
			f, _ := value.(float64)
			return time.Duration(f * float64(time.Second))
		}),
		ValueChecks(minNumber(0)),
	)
	if len(initial) > 0 {
		v.value = initial[0].Seconds()
	}
	return v
}

// Required fails when a value is unset.
func Required() Check {
	return func(e Entity) error {
		v, ok := e.(*Value)
		if !ok || v.IsSet() {
			return nil
		}
		return fmt.Errorf("%w: value is required", ErrInvalidValue)
	}
}

// OneOf fails when a set value is not one of allowed.
func OneOf(allowed ...any) Check {
	normalized := make([]any, 0, len(allowed))
	for _, value := range allowed {
		if n, _, err := normalizeScalar(value); err == nil {
			normalized = append(normalized, n)
		}
	}
	return func(e Entity) error {
		v, ok := e.(*Value)
		if !ok || !v.IsSet() {
			return nil
		}
		for _, candidate := range normalized {
			if candidate == v.value {
				return nil
			}
		}
		return fmt.Errorf("%w: %v is not an allowed value", ErrInvalidValue, v.value)
	}
}

func wholeNumber(e Entity) error {
	f, ok := numberOf(e)
	if !ok {
		return nil
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("%w: value must be a whole number (got: %v)", ErrInvalidValue, f)
	}
	return nil
}

func positiveNumber(e Entity) error {
	f, ok := numberOf(e)
	if !ok {
		return nil
	}
	if f <= 0 {
		return fmt.Errorf("%w: value must be positive (got: %v)", ErrInvalidValue, f)
	}
	return nil
}

func minNumber(min float64) Check {
	return func(e Entity) error {
		f, ok := numberOf(e)
		if !ok {
			return nil
		}
		if f < min {
			return fmt.Errorf("%w: value must be at least %v (got: %v)", ErrInvalidValue, min, f)
		}
		return nil
	}
}

func maxNumber(max float64) Check {
	return func(e Entity) error {
		f, ok := numberOf(e)
		if !ok {
			return nil
		}
		if f > max {
			return fmt.Errorf("%w: value must be at most %v (got: %v)", ErrInvalidValue, max, f)
		}
		return nil
	}
}

func numberOf(e Entity) (float64, bool) {
	v, ok := e.(*Value)
	if !ok {
		return 0, false
	}
	return v.Float()
}

func roundNumber(value any) any {
	if f, ok := value.(float64); ok {
		return math.Round(f)
	}
	return value
}

func clampMin(value any, min float64) any {
	if f, ok := value.(float64); ok && f < min {
		return min
	}
	return value
}

func toInt(value any) any {
	if f, ok := value.(float64); ok {
		return int(math.Round(f))
	}
	return value
}
