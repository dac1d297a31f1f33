package valsem

import (
	"errors"
	"fmt"
)

// ErrDepthExceeded is returned by Clone when the value graph is deeper than the
// registry's configured maximum depth.
var ErrDepthExceeded = errors.New("valsem: maximum clone depth exceeded")

// CloneForbiddenError reports an attempt to clone a value whose type was
// registered with CloneErrorOnClone.
type CloneForbiddenError struct {
	TypeName string
}

func (e *CloneForbiddenError) Error() string {
	return fmt.Sprintf("instances of type %s cannot be cloned", e.TypeName)
}

// GeneratorCloneError reports an attempt to clone live channel state.
type GeneratorCloneError struct {
	TypeName string
}

func (e *GeneratorCloneError) Error() string {
	return fmt.Sprintf("values of type %s hold live communication state and cannot be cloned", e.TypeName)
}

// RebuildCycleError reports a value rebuilt through its add method that
// contains itself. Only map-based types can be rebuilt while they are still
// being filled, so the copy of any other kind cannot refer to itself.
type RebuildCycleError struct {
	TypeName string
}

func (e *RebuildCycleError) Error() string {
	return fmt.Sprintf("values of type %s contain themselves and cannot be rebuilt through their add method", e.TypeName)
}

// ConflictError reports a field that a registration would both include and
// exclude for the same operation.
type ConflictError struct {
	TypeName string
	Field    string
	Op       Operation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("type %s: field %q cannot be both included and excluded for %s", e.TypeName, e.Field, e.Op)
}

// CapabilityError reports a registration that cannot be honoured for the type,
// such as an unknown field or a constructor with the wrong signature.
type CapabilityError struct {
	TypeName string
	Reason   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("type %s: %s", e.TypeName, e.Reason)
}

func capabilityErrorf(typeName, format string, a ...any) *CapabilityError {
	return &CapabilityError{TypeName: typeName, Reason: fmt.Sprintf(format, a...)}
}

// IsCloneForbidden reports whether err, or any error it wraps, is a CloneForbiddenError.
func IsCloneForbidden(err error) bool {
	var target *CloneForbiddenError
	return errors.As(err, &target)
}
