// internal/catalog/errors.go
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrRecordNotFound is matched by every ReferenceNotFound.
var ErrRecordNotFound = errors.New("record not found")

// ErrMarkReturnedDenied is returned when a user without
// PermCanMarkReturned tries to make a copy Available.
var ErrMarkReturnedDenied = errors.New("permission denied: " + PermCanMarkReturned)

// ReferenceNotFound is returned when a lookup by primary key finds no row.
type ReferenceNotFound struct {
	Entity string
	ID     string
}

func (e *ReferenceNotFound) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func (e *ReferenceNotFound) Is(target error) bool {
	return target == ErrRecordNotFound
}

func notFound(entity string, id any) error {
	return &ReferenceNotFound{Entity: entity, ID: fmt.Sprint(id)}
}

// ValidationError maps each offending field to a message. The first failure
// recorded for a field wins.
type ValidationError struct {
	Errors map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Errors: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Errors[field]; !exists {
		e.Errors[field] = message
	}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Errors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, message string) error {
	v := newValidationError()
	v.Add(field, message)
	return v
}

// ConstraintViolation is returned when a cross-row invariant enforced by the
// database rejects a write.
type ConstraintViolation struct {
	Constraint string
	Message    string
}

func (e *ConstraintViolation) Error() string { return e.Message }

const LanguageExistsMessage = "Language already exists (case insensitive match)"
