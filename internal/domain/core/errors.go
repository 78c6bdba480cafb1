package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("concurrent update conflict")
	ErrPersistence = errors.New("persistence failure")

	// Gateway-level sentinels. Services translate these before returning.
	ErrRecordNotFound = errors.New("record not found")
	ErrStaleVersion   = errors.New("stale version")
	ErrDuplicateKey   = errors.New("duplicate key")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type ConflictError struct {
	Kind Kind
	ID   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Kind, e.ID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func NotFound(kind Kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// Translate maps a gateway error onto the typed taxonomy. Errors that are already typed pass
// through unchanged; anything unknown becomes a PersistenceError for op.
func Translate(op string, kind Kind, id string, err error) error {
	if err == nil {
		return nil
	}
	var (
		validation *ValidationError
		notFound   *NotFoundError
		conflict   *ConflictError
		persist    *PersistenceError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &notFound), errors.As(err, &conflict), errors.As(err, &persist):
		return err
	case errors.Is(err, ErrRecordNotFound):
		return NotFound(kind, id)
	case errors.Is(err, ErrStaleVersion):
		return &ConflictError{Kind: kind, ID: id}
	case errors.Is(err, ErrDuplicateKey):
		return Invalid("id", fmt.Sprintf("%s %s already exists", kind, id))
	default:
		return &PersistenceError{Op: op, Err: err}
	}
}

// Outcome is the metrics label for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

// Message renders the user-facing text for an operation failure.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		validation *ValidationError
		notFound   *NotFoundError
		conflict   *ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &conflict):
		return conflict.Error() + ", please retry"
	default:
		return "operation failed, please try again later"
	}
}
