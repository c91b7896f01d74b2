package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrNonPositiveBuy))
	assert.True(t, IsValidationError(fmt.Errorf("buy AAPL: %w", ErrInvalidRequestBody)))
	assert.False(t, IsValidationError(errors.New("connection refused")))
	assert.False(t, IsValidationError(nil))
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "Quantity to sell must be positive.", ErrNonPositiveSell.Error())
	assert.EqualError(t, NewValidationError("bad ticker"), "bad ticker")
}
