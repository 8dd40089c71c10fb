// Package domain defines core types, interfaces, and errors for the sqlguard
// data-access layer.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input from the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ParseError indicates a statement could not be structurally parsed.
type ParseError struct {
	SQL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse statement: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ScopeUnenforceableError indicates a scope filter was supplied for a
// statement the rewriter cannot restrict. The statement is not executed.
type ScopeUnenforceableError struct {
	Message string
}

func (e *ScopeUnenforceableError) Error() string { return e.Message }

// ConflictError indicates an optimistic-lock version mismatch: the guarded
// UPDATE matched no row at the expected version.
type ConflictError struct {
	Message string
	Table   string
	Version int64
}

func (e *ConflictError) Error() string { return e.Message }

// RejectedError indicates a statement was refused before execution, for
// example an UPDATE or DELETE without an effective predicate.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// CacheUnavailableError indicates the session store could not be reached.
type CacheUnavailableError struct {
	Op  string
	Err error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("session cache unavailable (%s): %v", e.Op, e.Err)
}

func (e *CacheUnavailableError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrScopeUnenforceable creates a ScopeUnenforceableError with a formatted message.
func ErrScopeUnenforceable(format string, args ...interface{}) *ScopeUnenforceableError {
	return &ScopeUnenforceableError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError for the given table and expected version.
func ErrConflict(table string, version int64) *ConflictError {
	return &ConflictError{
		Message: fmt.Sprintf("optimistic lock conflict on %q: row changed since version %d", table, version),
		Table:   table,
		Version: version,
	}
}

// ErrRejected creates a RejectedError with a formatted message.
func ErrRejected(format string, args ...interface{}) *RejectedError {
	return &RejectedError{Message: fmt.Sprintf(format, args...)}
}
