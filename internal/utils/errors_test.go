package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "test error message"}
	assert.Equal(t, "test error message", err.Error())

	err = &ValidationError{Field: "coin", Message: "is required"}
	assert.Equal(t, "coin: is required", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation failed")

	assert.Error(t, err)
	assert.Equal(t, "validation failed", err.Error())

	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "validation failed", validationErr.Message)
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("at most %d coins per request, got %d", 10, 12)
	assert.Equal(t, "at most 10 coins per request, got 12", err.Error())
}

func TestIsValidationError(t *testing.T) {
	err := fmt.Errorf("batch: %w", NewFieldError("coins", "must not be empty"))
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(fmt.Errorf("upstream down")))
	assert.False(t, IsValidationError(nil))
}

func TestCoinIDHelpers(t *testing.T) {
	assert.Equal(t, "bitcoin", NormalizeCoinID("  Bitcoin "))

	assert.True(t, ValidCoinID("bitcoin"))
	assert.True(t, ValidCoinID("shiba-inu"))
	assert.True(t, ValidCoinID("usd-coin"))
	assert.False(t, ValidCoinID(""))
	assert.False(t, ValidCoinID("bit coin"))
	assert.False(t, ValidCoinID("-bitcoin"))
	assert.False(t, ValidCoinID("../etc"))

	assert.Equal(t, "Bitcoin", DisplayName("bitcoin"))
	assert.Equal(t, "Shiba Inu", DisplayName("shiba-inu"))
	assert.Equal(t, "", DisplayName(""))
}
