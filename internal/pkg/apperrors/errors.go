package apperrors

import (
	"errors"
	"fmt"
)

// Request errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidTerms    = errors.New("invalid loan terms")
)

// Loan lifecycle errors.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrInstallmentAlreadyPaid = errors.New("installment is already paid")
	ErrLoanClosed             = errors.New("loan is closed")
	ErrConflict               = errors.New("resource conflict")
)

// Access errors.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Infrastructure errors.
var (
	ErrDatabase       = errors.New("database error")
	ErrInternalServer = errors.New("internal server error")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// NewValidationError matches both ErrValidation and *ValidationError.
func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// AppError carries a stable code for errors raised below the service layer.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WrapDatabaseError matches ErrDatabase and cause.
func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}

var rejections = []error{
	ErrValidation,
	ErrInvalidTerms,
	ErrNotFound,
	ErrInvalidPaymentAmount,
	ErrInstallmentAlreadyPaid,
	ErrLoanClosed,
	ErrConflict,
	ErrForbidden,
}

// IsRejection reports whether err is a refusal of the request itself, one
// that retrying unchanged cannot fix.
func IsRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
