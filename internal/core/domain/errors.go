// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across services and handlers
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrEmptyCart       = &ValidationError{Field: "items", Message: "Items are required"}
)

// ValidationError reports a missing or malformed field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError is returned when a checkout line or a removal
// asks for more than the product holds.
type InsufficientStockError struct {
	ProductName string
	Available   decimal.Decimal
	Unit        Unit
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Only %s %s available",
		e.ProductName, e.Available.String(), e.Unit)
}

// ConflictError reports a uniqueness or duplicate-request violation
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// PermissionError names the permission the caller was missing
type PermissionError struct {
	Permission Permission
}

func (e *PermissionError) Error() string {
	return "Permission denied: " + e.Permission.String()
}

// Is lets errors.Is(err, ErrForbidden) match permission failures too.
func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

// Forbidden wraps ErrForbidden with a caller-facing message.
func Forbidden(msg string) error {
	return &forbiddenError{msg: msg}
}

type forbiddenError struct {
	msg string
}

func (e *forbiddenError) Error() string        { return e.msg }
func (e *forbiddenError) Is(target error) bool { return target == ErrForbidden }
