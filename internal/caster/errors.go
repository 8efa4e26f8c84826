package caster

import (
	"errors"
	"fmt"

	"jsonrows/internal/schema"
	"jsonrows/internal/value"
)

// ErrTypeMismatch matches every cell conversion failure.
var ErrTypeMismatch = errors.New("type mismatch")

var (
	errTypecastDisabled = errors.New("typecast is disabled for this column")
	errNotCoercible     = errors.New("no conversion exists")
	errOutOfRange       = errors.New("value out of range")
)

// TypeMismatchError reports a value that could not be converted into its
// column's type.
type TypeMismatchError struct {
	Column string
	Type   schema.Type
	Kind   value.Kind
	Err    error
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q (%s): cannot cast JSON %s: %v", e.Column, e.Type, e.Kind, e.Err)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }
