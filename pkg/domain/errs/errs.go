// Package errs defines the error taxonomy shared by the planning engine.
//
// Three kinds exist: NotFound (a referenced entity is absent), Validation
// (malformed input) and Workflow (the operation is forbidden by the current
// status). Callers match them with errors.Is against the sentinels or use
// KindOf when mapping to a transport.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrWorkflow   = errors.New("workflow violation")
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindWorkflow
)

// String method for Kind enum
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindWorkflow:
		return "Workflow"
	default:
		return "Unknown"
	}
}

// NotFoundError reports a missing scenario, employee, initiative, snapshot or alert.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// WorkflowError reports an operation that the current status does not allow.
// Attempted is the target status of a transition, empty for plain mutations.
type WorkflowError struct {
	Entity    string
	ID        string
	Operation string
	Current   string
	Attempted string
}

func (e *WorkflowError) Error() string {
	msg := fmt.Sprintf("%s %s: %s not allowed in status %s", e.Entity, e.ID, e.Operation, e.Current)
	if e.Attempted != "" {
		msg += fmt.Sprintf(" (attempted %s)", e.Attempted)
	}
	return msg
}

func (e *WorkflowError) Is(target error) bool {
	return target == ErrWorkflow
}

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Validation builds a ValidationError with a formatted reason.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Workflow builds a WorkflowError.
func Workflow(entity, id, operation, current, attempted string) error {
	return &WorkflowError{
		Entity:    entity,
		ID:        id,
		Operation: operation,
		Current:   current,
		Attempted: attempted,
	}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrWorkflow):
		return KindWorkflow
	default:
		return KindUnknown
	}
}
