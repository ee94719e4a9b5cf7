package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrDuplicateType is returned when a tag is registered twice.
	ErrDuplicateType = errors.New("entity: type already registered")
	// ErrUnknownType is returned when building a tag the registry does not know.
	ErrUnknownType = errors.New("entity: unknown type")
	// ErrDuplicateKey is returned when a child key is added twice.
	ErrDuplicateKey = errors.New("entity: duplicate key")
	// ErrKeyNotFound is returned when a child key is absent.
	ErrKeyNotFound = errors.New("entity: key not found")
	// ErrIndexOutOfRange is returned for array indices outside [0, len).
	ErrIndexOutOfRange = errors.New("entity: index out of range")
	// ErrElementType is returned when an element does not carry the array's element type.
	ErrElementType = errors.New("entity: wrong element type")
	// ErrMissingElementType is returned when a dynamic array cannot build elements.
	ErrMissingElementType = errors.New("entity: element type not set")
	// ErrShapeMismatch is returned when a fixed array snapshot does not match its layout.
	ErrShapeMismatch = errors.New("entity: shape mismatch")
	// ErrUnknownKey is returned when a closed object receives an undeclared key.
	ErrUnknownKey = errors.New("entity: unknown key")
	// ErrUnknownOption is returned when a choice option name is not declared.
	ErrUnknownOption = errors.New("entity: unknown option")
	// ErrTypeMismatch is returned by strict imports of a snapshot with another tag.
	ErrTypeMismatch = errors.New("entity: type mismatch")
	// ErrValueKind is returned when a value does not match the declared kind.
	ErrValueKind = errors.New("entity: wrong value kind")
	// ErrNotEmpty is returned when BuildFrom targets an array that already holds elements.
	ErrNotEmpty = errors.New("entity: container not empty")
	// ErrRuleFailed is returned when a rule evaluates to false.
	ErrRuleFailed = errors.New("entity: rule failed")
)

// TypeMismatchError reports a strict import of a snapshot carrying another tag.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("entity: wrong entity type: expected %q, got %q", e.Expected, e.Got)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// ValidationError pairs a failure with the path of labels leading to the
// failing node, outermost first.
type ValidationError struct {
	Path []string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Path) == 0 {
		return fmt.Sprintf("entity: validation failed: %v", e.Err)
	}
	return fmt.Sprintf("entity: validation failed at %s: %v", FormatPath(e.Path), e.Err)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FormatPath renders a validation path as a bracketed list of quoted labels.
func FormatPath(path []string) string {
	quoted := make([]string, len(path))
	for i, segment := range path {
		quoted[i] = strconv.Quote(segment)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// PathOf returns the validation path carried by err, if any.
func PathOf(err error) []string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return append([]string(nil), validationErr.Path...)
	}
	return nil
}

// WithPathSegment prefixes segment onto the path of err, creating a
// ValidationError when err does not carry one yet.
func WithPathSegment(segment string, err error) error {
	if err == nil {
		return nil
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		validationErr.Path = append([]string{segment}, validationErr.Path...)
		return err
	}
	return &ValidationError{
		Path: []string{segment},
		Err:  err,
	}
}

func elementLabel(index int) string {
	return "Element #" + strconv.Itoa(index+1)
}

// ImportError pairs an import failure with the keys leading to the node that
// rejected its snapshot, outermost first.
type ImportError struct {
	Path []string
	Err  error
}

func (e *ImportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("entity: import failed at %s: %v", FormatPath(e.Path), e.Err)
}

func (e *ImportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func withImportSegment(segment string, err error) error {
	if err == nil {
		return nil
	}
	var importErr *ImportError
	if errors.As(err, &importErr) {
		importErr.Path = append([]string{segment}, importErr.Path...)
		return err
	}
	return &ImportError{
		Path: []string{segment},
		Err:  err,
	}
}

// PathOfImport returns the key path carried by an import error, if any.
func PathOfImport(err error) []string {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return append([]string(nil), importErr.Path...)
	}
	return nil
}
