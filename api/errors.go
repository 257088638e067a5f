// File: api/errors.go
// Package api defines the public contracts of the typepool library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "fmt"

// Common errors used across the library.
var (
	ErrAllocationFailure = fmt.Errorf("slab allocation failed")
	ErrPoolClosed        = fmt.Errorf("pool is closed")
	ErrRegistryClosed    = fmt.Errorf("registry is closed")
	ErrUnknownAddress    = fmt.Errorf("address does not belong to this pool")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrNotFound          = fmt.Errorf("resource not found")
	ErrAlreadyExists     = fmt.Errorf("resource already exists")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeAllocationFailure
	ErrCodeConstructionFailure
	ErrCodeNotFound
	ErrCodeAlreadyExists
	ErrCodeContractViolation
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
