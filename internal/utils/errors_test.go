package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	t.Parallel()

	t.Run("401 matches ErrUnauthorized", func(t *testing.T) {
		err := fmt.Errorf("fetch: %w", NewAPIError(http.StatusUnauthorized, "", ""))

		require.ErrorIs(t, err, ErrUnauthorized)
		require.True(t, IsAuthError(err))
		require.False(t, IsNotFoundError(err))
	})

	t.Run("other statuses do not", func(t *testing.T) {
		err := NewAPIError(http.StatusForbidden, "Access denied", "forbidden")

		require.NotErrorIs(t, err, ErrUnauthorized)
		require.True(t, IsForbiddenError(err))
		require.Equal(t, "API error (403): Access denied", err.Error())
	})

	t.Run("empty message falls back to status text", func(t *testing.T) {
		require.Equal(t, "not found", NewAPIError(http.StatusNotFound, "", "").Message)
	})
}

func TestMultiError(t *testing.T) {
	t.Parallel()

	multi := NewMultiError()
	require.NoError(t, multi.ErrorOrNil())

	multi.Add(nil)
	multi.Add(NewValidationError("email", "invalid email format"))
	require.EqualError(t, multi.ErrorOrNil(), "validation error for field 'email': invalid email format")

	multi.Add(NewValidationError("password", "password is required"))
	require.EqualError(t, multi, "2 errors occurred")

	var validationErr *ValidationError
	require.ErrorAs(t, multi, &validationErr)
	require.Equal(t, "email", validationErr.Field)
}

func TestMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"session expired", fmt.Errorf("%w: %w", ErrSessionExpired, errors.New("refresh rejected")), "session expired, please login again"},
		{"remote", NewAPIError(http.StatusBadRequest, "Invalid request", ""), "Invalid request"},
		{"validation", NewValidationError("content", "content is required"), "content: content is required"},
		{"validation without field", NewValidationError("", "bad input"), "bad input"},
		{"network", &NetworkError{Op: "GET /profile", Err: errors.New("connection refused")}, "network error: connection refused"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Message(tt.err))
		})
	}

	t.Run("several validation errors", func(t *testing.T) {
		multi := NewMultiError()
		multi.Add(NewValidationError("email", "invalid email format"))
		multi.Add(NewValidationError("phone_number", "invalid phone number"))

		require.Equal(t, "email: invalid email format; phone_number: invalid phone number", Message(multi))
	})
}
