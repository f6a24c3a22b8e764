package apperrors

import (
	"errors"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrDocumentLocked indicates a mutation attempt on a locked declaration.
// Locked declarations are read-only; this is surfaced to the operator as a
// single explicit "document is locked and read-only" message.
var ErrDocumentLocked = errors.New("document is locked and read-only")

// ErrForbidden indicates the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("operation not permitted")

// ValidationError carries the human-readable messages produced by the
// submission validation gate. It matches ErrValidation under errors.Is so
// handlers can map it to a 400 without inspecting the concrete type.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return ErrValidation.Error()
	}
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
