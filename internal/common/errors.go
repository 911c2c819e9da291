package common

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("resource conflict")
	ErrVersionConflict = errors.New("resource was modified by another request")
	ErrValidation      = errors.New("validation failed")
	ErrRateLimited     = errors.New("too many requests, try again later")

	ErrInstallmentPaid   = fmt.Errorf("%w: installment is paid and can no longer be changed", ErrValidation)
	ErrInstallmentsExist = fmt.Errorf("%w: payment already has installments", ErrConflict)
)

// ValidationError is a field level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a field level validation error
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError carries the reason an action was denied.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// OperationError hides the cause of an unexpected failure from API clients while
// keeping it reachable through errors.Unwrap for logs and development responses.
type OperationError struct {
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("failed to %s: operation could not be completed", e.Operation)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Detail returns the message including the underlying cause.
func (e *OperationError) Detail() string {
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

// SecureErrorMessage wraps unexpected errors so their details never reach production clients.
// Domain errors (validation, not found, conflicts, authorization) pass through unchanged.
func SecureErrorMessage(operation string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrUnauthorized, ErrForbidden, ErrConflict, ErrVersionConflict, ErrValidation, ErrRateLimited} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &OperationError{Operation: operation, Err: err}
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateHexColor validates #rrggbb colors
func ValidateHexColor(value, fieldName string) error {
	if !hexColorPattern.MatchString(value) {
		return NewValidationError(fieldName, "must be a hex color like #1a2b3c")
	}
	return nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, "is required")
	}
	return nil
}

// ValidateMaxLength bounds optional free text
func ValidateMaxLength(value *string, fieldName string, maxLength int) error {
	if value != nil && len(*value) > maxLength {
		return NewValidationError(fieldName, fmt.Sprintf("cannot exceed %d characters", maxLength))
	}
	return nil
}

// NormalizeEmail validates an address and returns it trimmed and lower-cased
func NormalizeEmail(value, fieldName string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", NewValidationError(fieldName, "is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return "", NewValidationError(fieldName, "must be a valid email address")
	}
	return strings.ToLower(addr.Address), nil
}
