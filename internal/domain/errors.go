// Domain errors represent content-level failures, not transport errors.
// Adapters map them to HTTP status codes or CLI exit messages.

package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound: no item with that id in the working set, or a missing remote document.
	ErrNotFound = errors.New("not found")

	// ErrConflict: two items of one variant share an id.
	ErrConflict = errors.New("conflict")

	// ErrValidation: a field, enum or id failed to parse.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden: the content host refused the fetch.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable: the content host or the override store cannot be reached.
	ErrUnavailable = errors.New("unavailable")

	// ErrProtected indicates an attempt to modify an original item.
	ErrProtected = errors.New("protected content")

	// ErrLoad indicates the canonical dataset could not be retrieved or parsed.
	ErrLoad = errors.New("content load failed")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError provides context for conflict errors.
type ConflictError struct {
	Entity  string
	Reason  string
	Details string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s conflict: %s (%s)", e.Entity, e.Reason, e.Details)
	}

	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error with context.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// NewConflictErrorWithDetails creates a conflict error with additional details.
func NewConflictErrorWithDetails(entity, reason, details string) error {
	return &ConflictError{Entity: entity, Reason: reason, Details: details}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ForbiddenError provides context for forbidden errors.
type ForbiddenError struct {
	Operation string
	Reason    string
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}

	return fmt.Sprintf("operation %q forbidden", e.Operation)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NewForbiddenError creates a forbidden error with context.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// ProtectedContentError is returned when an edit or delete targets an item
// that exists in the canonical dataset.
type ProtectedContentError struct {
	Variant   Variant
	ID        int64
	Operation string
}

// Error implements the error interface.
func (e *ProtectedContentError) Error() string {
	return fmt.Sprintf("%s %d is original content and cannot be %s", e.Variant, e.ID, e.Operation)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ProtectedContentError) Unwrap() error {
	return ErrProtected
}

// NewProtectedContentError creates a protected content error.
// operation is a past participle such as "edited" or "deleted".
func NewProtectedContentError(variant Variant, id int64, operation string) error {
	return &ProtectedContentError{Variant: variant, ID: id, Operation: operation}
}

// LoadError wraps the failure to retrieve or parse the canonical dataset.
type LoadError struct {
	Source string
	Cause  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("loading content from %s: %v", e.Source, e.Cause)
	}

	return "loading content from " + e.Source
}

// Is matches ErrLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NewLoadError creates a load error for the named source.
func NewLoadError(source string, cause error) error {
	return &LoadError{Source: source, Cause: cause}
}

// NewItemNotFoundError creates a not found error for an item id.
func NewItemNotFoundError(variant Variant, id int64) error {
	return &NotFoundError{Entity: string(variant), ID: strconv.FormatInt(id, 10)}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsProtected checks if an error is a protected content error.
func IsProtected(err error) bool {
	return errors.Is(err, ErrProtected)
}

// IsLoad checks if an error is a load error.
func IsLoad(err error) bool {
	return errors.Is(err, ErrLoad)
}
