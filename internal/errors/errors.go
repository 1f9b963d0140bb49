// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrMissingIndexSource indicates the document index or link source is absent.
	// Loaders degrade to empty data instead of propagating this to end users.
	ErrMissingIndexSource = errors.New("index source missing")

	// ErrEmptyResultSet indicates zero documents were resolvable after all
	// required search passes.
	ErrEmptyResultSet = errors.New("no matching documents")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrContextCanceled indicates context was canceled.
	ErrContextCanceled = errors.New("context canceled")
)

// MalformedRowError reports a row that failed normalization while loading a
// tabular source. Loaders skip the row and continue; the error is only logged.
type MalformedRowError struct {
	Source string
	Row    int
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d in %s: %s", e.Row, e.Source, e.Reason)
}

// NewMalformedRowError creates a new malformed row error.
func NewMalformedRowError(source string, row int, reason string) *MalformedRowError {
	return &MalformedRowError{
		Source: source,
		Row:    row,
		Reason: reason,
	}
}

// CollaboratorError represents a hard failure of the external
// retrieval/generation collaborator. It is the only error class surfaced
// verbatim to the response assembler's caller.
type CollaboratorError struct {
	Provider string
	Err      error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator error (provider=%s): %v", e.Provider, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError creates a new collaborator error.
func NewCollaboratorError(provider string, err error) *CollaboratorError {
	return &CollaboratorError{
		Provider: provider,
		Err:      err,
	}
}
