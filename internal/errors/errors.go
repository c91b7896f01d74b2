package errors

import (
	"errors"
)

// ValidationError marks input the caller has to fix. Handlers answer it with
// 400 and its message.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

var (
	ErrInvalidRequestBody = NewValidationError("Invalid request body.")
	ErrNonPositiveBuy     = NewValidationError("Quantity and price must be positive.")
	ErrNonPositiveSell    = NewValidationError("Quantity to sell must be positive.")
	ErrQuantityTooLarge   = NewValidationError("Quantity is too large.")
	ErrCostTooLarge       = NewValidationError("Total cost is too large.")
)
