package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller faults; no computation was attempted.
	ErrValidation = errors.New("validation failed")
	// ErrStorage marks failures of the transaction store; no partial result is returned.
	ErrStorage = errors.New("transaction storage failure")
)

// ValidationReason classifies a rejected query field
type ValidationReason string

const (
	ReasonRequired   ValidationReason = "required"
	ReasonDateFormat ValidationReason = "date_format"
	ReasonDateRange  ValidationReason = "date_range"
	ReasonCurrency   ValidationReason = "currency"
	ReasonInvalid    ValidationReason = "invalid"
)

// ValidationError describes the first invalid field of a request
type ValidationError struct {
	Field   string
	Reason  ValidationReason
	Message string
}

func newValidationError(field string, reason ValidationReason, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AsValidationError extracts a *ValidationError from err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
