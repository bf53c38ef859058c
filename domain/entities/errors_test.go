package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_MatchesOnReason(t *testing.T) {
	t.Parallel()

	detailed := Detailed(ErrInsufficientFunds, "need %d more", 12)
	wrapped := fmt.Errorf("debit failed: %w", detailed)

	assert.ErrorIs(t, wrapped, ErrInsufficientFunds)
	assert.NotErrorIs(t, wrapped, ErrOutOfStock)
	assert.Equal(t, "need 12 more", detailed.Message)
	assert.Equal(t, "insufficient funds", ErrInsufficientFunds.Message, "sentinel is not mutated")

	de, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorKindPrecondition, de.Kind)
}

func TestStorageError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")

	retryable := StorageError(cause, true)
	assert.True(t, retryable.Retryable)
	assert.ErrorIs(t, retryable, ErrStorageUnavailable)
	assert.ErrorIs(t, retryable, cause)

	permanent := StorageError(cause, false)
	assert.False(t, permanent.Retryable)
	assert.Equal(t, "storage failure", permanent.Message)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	err := Validation("amount must be positive, got %d", -3)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, ErrorKindValidation, err.Kind)
}
