package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record or file is absent.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when directory access was declined or revoked.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrBackendUnavailable is returned when the selected backend cannot serve a call.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSearchTimeout is returned when a pattern search exceeds its time bound.
	ErrSearchTimeout = errors.New("search timed out")
	// ErrTooManyMatches is returned when a pattern search exceeds its match ceiling.
	ErrTooManyMatches = errors.New("too many matches")
	// ErrUnsafePattern is returned for patterns rejected before compilation.
	ErrUnsafePattern = errors.New("unsafe pattern")
)

// PartialFailure reports a bulk operation that completed some items and
// failed others.
type PartialFailure struct {
	Op        string
	Succeeded int
	Failed    int
	Errs      []error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %d succeeded, %d failed", e.Op, e.Succeeded, e.Failed)
}

// Unwrap exposes the per-item errors to errors.Is / errors.As.
func (e *PartialFailure) Unwrap() []error {
	return e.Errs
}

// IntegrityError marks an interrupted multi-step directory operation.
// Both OldPath and NewPath may exist on disk afterwards.
type IntegrityError struct {
	Op      string
	OldPath string
	NewPath string
	Err     error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %q -> %q left partial state: %v", e.Op, e.OldPath, e.NewPath, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// FallbackError is returned by a write that could not be applied to the file
// backend and was stored in the structured store instead. The data is durable;
// the error exists so callers can surface the degraded state.
type FallbackError struct {
	Op  string
	Err error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("%s: file backend failed, stored in database: %v", e.Op, e.Err)
}

func (e *FallbackError) Unwrap() []error {
	return []error{ErrBackendUnavailable, e.Err}
}

// IsDegraded reports whether err only signals a fallback write.
func IsDegraded(err error) bool {
	var fe *FallbackError
	return errors.As(err, &fe)
}

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
