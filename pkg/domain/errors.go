package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned by any code branching over Kind that meets a
	// value it does not recognize.
	ErrUnknownKind = errors.New("unrecognized node kind")

	// ErrMissingField is returned when a required constructor field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrLeafChildren is returned when children are supplied to a leaf kind.
	ErrLeafChildren = errors.New("leaf node cannot have children")

	// ErrInvalidChild is returned when a child violates its parent's shape.
	ErrInvalidChild = errors.New("invalid child node")
)

// ConstructionError reports a constructor contract violation.
type ConstructionError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *ConstructionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("construct %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("construct %s: %s: %v", e.Kind, e.Field, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func constructionError(kind Kind, field string, err error) error {
	return &ConstructionError{Kind: kind, Field: field, Err: err}
}

// Must panics if err is non-nil and returns v otherwise.
// Useful for static fixtures where a construction error is a programming bug.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
