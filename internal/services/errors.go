package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by service operations. Handlers map these onto
// HTTP status codes.
var (
	ErrSessionNotFound    = errors.New("no active test session for student")
	ErrTestAlreadyStarted = errors.New("test already started")
	ErrTestNotInProgress  = errors.New("test is not in progress")
	ErrTestTimeExpired    = errors.New("test time expired")
	ErrQuestionLocked     = errors.New("question time expired")
	ErrMaxAttemptsReached = errors.New("maximum test attempts reached")
	ErrResultNotFound     = errors.New("test result not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrScoringImpossible  = errors.New("cannot score a test with no questions")
	ErrResultNotPersisted = errors.New("result could not be persisted")
)

// ValidationError carries field-level detail for a rejected input.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// PermissionError marks an operation the caller may not perform.
type PermissionError struct {
	UserID    string
	Resource  string
	Operation string
	Reason    string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Operation, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, operation, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Resource: resource, Operation: operation, Reason: reason}
}

// PersistenceError wraps a storage failure after retries were exhausted.
// The scored result is attached so callers can still show it to the student.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("result persistence failed after retries: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
