package engine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/trellis/internal/id"
)

// UpdateLoopError is returned when an update cycle keeps finding work
// past the pass quota. The usual cause is a binding builder or event
// handler that mutates the model it is bound to, scheduling the next
// pass from inside the current one.
//
// The error carries structured fields for diagnostics; nothing about
// the tree is rolled back.
type UpdateLoopError struct {
	// Passes is the number of passes run before giving up.
	Passes int

	// Limit is the configured pass quota.
	Limit int

	// Pending is the number of events still queued when the cycle
	// halted.
	Pending int
}

// Error implements the error interface.
func (e *UpdateLoopError) Error() string {
	return fmt.Sprintf("update cycle did not settle after %d passes (limit %d, %d events pending)",
		e.Passes, e.Limit, e.Pending)
}

// IsUpdateLoopError returns true if the error is an UpdateLoopError.
// Uses errors.As to handle wrapped errors.
func IsUpdateLoopError(err error) bool {
	var ue *UpdateLoopError
	return errors.As(err, &ue)
}

// MissingModelError is the panic payload when a binding is built and no
// node from the binding up to the root carries a model of the lens's
// source type. This is a programmer error: the model must be built
// before anything binds to it.
type MissingModelError struct {
	// Source is the model type the lens projects from.
	Source reflect.Type

	// Node is the binding node that failed to register.
	Node id.NodeID
}

// Error implements the error interface.
func (e *MissingModelError) Error() string {
	return fmt.Sprintf("no model of type %s in scope of node %s", e.Source, e.Node)
}

// IsMissingModelError returns true if the error is a MissingModelError.
// Uses errors.As to handle wrapped errors.
func IsMissingModelError(err error) bool {
	var me *MissingModelError
	return errors.As(err, &me)
}
