package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesKindAndCause(t *testing.T) {
	err := WrapError(ErrorUnauthorized, "Token expired", ErrTokenExpired)

	assert.True(t, errors.Is(err, ErrorUnauthorized))
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.False(t, errors.Is(err, ErrInvalidToken))
	assert.False(t, errors.Is(err, ErrorValidation))
}

func TestAppError_WithoutCause(t *testing.T) {
	err := NewError(ErrorValidation, "All fields are required")

	assert.True(t, errors.Is(err, ErrorValidation))
	assert.Equal(t, "validation error: All fields are required", err.Error())
}

func TestAsAppError_ThroughWrapping(t *testing.T) {
	inner := NewError(ErrorConflict, "User with this email or username already exists")
	wrapped := fmt.Errorf("register: %w", inner)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
